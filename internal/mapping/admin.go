package mapping

import (
	"context"
	"fmt"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
)

// IndicesAdmin is the minimal slice of ElasticSearch's index admin API this
// package needs, kept narrow so it can be satisfied by an
// `olivere/elastic/v7`-backed implementation in internal/transport without
// mapping importing transport (spec §4.2, grounded on `index/util.py:
// configure_index`).
type IndicesAdmin interface {
	Exists(ctx context.Context, index string) (bool, error)
	Get(ctx context.Context, index string) (settings, mappings M, err error)
	Close(ctx context.Context, index string) error
	Open(ctx context.Context, index string) error
	PutSettings(ctx context.Context, index string, body M) error
	PutMapping(ctx context.Context, index string, body M) error
	Create(ctx context.Context, index string, settings, mappings M) error
}

// ConfigureIndex creates the index if it does not exist, or otherwise
// updates its mapping (and, only if needed, its settings) in place. It is
// the Go analogue of `index/util.py: configure_index` -- settings changes
// require briefly closing the index, so SettingsChanged guards against
// doing that unnecessarily.
func ConfigureIndex(ctx context.Context, admin IndicesAdmin, index string, newMapping, newSettings M) error {
	exists, err := admin.Exists(ctx, index)
	if err != nil {
		return lbryerrors.Err(err)
	}
	if !exists {
		return lbryerrors.Err(admin.Create(ctx, index, newSettings, newMapping))
	}

	existingSettings, existingMapping, err := admin.Get(ctx, index)
	if err != nil {
		return lbryerrors.Err(err)
	}

	// number_of_shards cannot be changed on an existing index; drop it
	// before comparing so a pre-existing index is never flagged "changed"
	// on shard count alone.
	pending := cloneDeep(newSettings)
	if idx, ok := pending["index"].(M); ok {
		delete(idx, "number_of_shards")
	}

	if SettingsChanged(pending, existingSettings) {
		if err := admin.Close(ctx, index); err != nil {
			return lbryerrors.Err(err)
		}
		if err := admin.PutSettings(ctx, index, pending); err != nil {
			return lbryerrors.Err(err)
		}
	}

	rewritten := RewriteMappingSafe(newMapping, existingMapping)
	if err := admin.PutMapping(ctx, index, rewritten); err != nil {
		return lbryerrors.Err(err)
	}
	if SettingsChanged(pending, existingSettings) {
		if err := admin.Open(ctx, index); err != nil {
			return lbryerrors.Err(err)
		}
	}
	return nil
}

// immutableMappingKeys mirrors `index/util.py: rewrite_mapping_safe`'s
// IMMUTABLE tuple: once set on an existing field, these attributes cannot
// be changed without reindexing, so the existing value always wins.
var immutableMappingKeys = map[string]bool{
	"type": true, "analyzer": true, "normalizer": true, "index": true, "store": true,
}

// RewriteMappingSafe merges a pending mapping into an existing one,
// keeping immutable per-field attributes (type, analyzer, normalizer,
// index, store) pinned to their already-live values so PutMapping never
// fails with "mapper_exception: cannot change attribute".
func RewriteMappingSafe(pending, existing M) M {
	if pending == nil {
		return existing
	}
	if existing == nil {
		return pending
	}
	for key, value := range pending {
		oldValue := existing[key]
		if nested, ok := value.(M); ok {
			if oldNested, ok := oldValue.(M); ok {
				value = RewriteMappingSafe(nested, oldNested)
			}
		} else if immutableMappingKeys[key] && oldValue != nil {
			value = oldValue
		}
		pending[key] = value
	}
	for key, value := range existing {
		if _, ok := pending[key]; !ok {
			pending[key] = value
		}
	}
	return pending
}

// SettingsChanged reports whether applying `updated` would change
// anything already in effect in `existing` -- since changing index
// settings requires a close/open cycle, callers should skip it when this
// returns false (`index/util.py: check_settings_changed`).
func SettingsChanged(updated, existing M) bool {
	for key, value := range updated {
		nested, isMap := value.(M)
		if !isMap {
			// ES always echoes settings values back as strings regardless
			// of the type they were submitted as, so compare string forms
			// rather than flagging every int-typed setting as drifted.
			if fmt.Sprint(existing[key]) != fmt.Sprint(value) {
				return true
			}
			continue
		}
		existingNested, ok := existing[key].(M)
		if !ok {
			return true
		}
		if SettingsChanged(nested, existingNested) {
			return true
		}
	}
	return false
}

func cloneDeep(m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		if nested, ok := v.(M); ok {
			out[k] = cloneDeep(nested)
		} else {
			out[k] = v
		}
	}
	return out
}
