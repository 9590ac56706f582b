package indexer

import (
	"time"

	"github.com/lbryio/lbry.go/v2/extras/null"

	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/mapping"
)

// Entry wraps one entity proxy with the optional ingestion-context
// timestamps a caller may supply alongside it, mirroring the teacher's
// `app/model/claim.go` use of `null.Time` for optional chainquery columns
// that aren't always populated.
type Entry struct {
	Proxy     *ftm.Proxy
	CreatedAt null.Time
	UpdatedAt null.Time
	FirstSeen null.Time
	LastSeen  null.Time
	Origin    null.String
	Referents []string
}

// TransformEntry builds a Document from an Entry, layering the optional
// ingestion timestamps on top of Transform's proxy-derived fields.
func (t *Transformer) TransformEntry(e *Entry) Document {
	doc := t.Transform(e.Proxy)
	if doc == nil {
		return nil
	}
	if e.CreatedAt.Valid {
		doc[mapping.FieldCreatedAt] = e.CreatedAt.Time.UTC().Format(time.RFC3339)
	}
	if e.UpdatedAt.Valid {
		doc[mapping.FieldUpdatedAt] = e.UpdatedAt.Time.UTC().Format(time.RFC3339)
	}
	if e.FirstSeen.Valid {
		doc["first_seen"] = e.FirstSeen.Time.UTC().Format(time.RFC3339)
	}
	if e.LastSeen.Valid {
		doc["last_seen"] = e.LastSeen.Time.UTC().Format(time.RFC3339)
	}
	if e.Origin.Valid {
		doc[mapping.FieldOrigin] = e.Origin.String
	}
	if len(e.Referents) > 0 {
		doc["referents"] = e.Referents
	}
	return doc
}
