// Package auth implements the Authorization object from spec.md §6/§7.2,
// grounded on the original `query/util.py: datasets_query`.
package auth

import "strconv"

// Authorization scopes a request to the datasets/collections a caller may
// see. A nil *Authorization disables authorization entirely (spec §6
// default).
type Authorization struct {
	IsAdmin       bool
	Datasets      map[string]bool
	CollectionIDs map[int]bool
}

// New builds an Authorization from dataset/collection allow-lists.
func New(isAdmin bool, datasets []string, collectionIDs []int) *Authorization {
	a := &Authorization{IsAdmin: isAdmin}
	if datasets != nil {
		a.Datasets = map[string]bool{}
		for _, d := range datasets {
			a.Datasets[d] = true
		}
	}
	if collectionIDs != nil {
		a.CollectionIDs = map[int]bool{}
		for _, c := range collectionIDs {
			a.CollectionIDs[c] = true
		}
	}
	return a
}

// AllowsDataset reports whether the given dataset is visible to this
// authorization. Admins see everything; an unset dataset allow-list means
// "all datasets" (open authorization on that axis).
func (a *Authorization) AllowsDataset(dataset string) bool {
	if a == nil || a.IsAdmin {
		return true
	}
	if a.Datasets == nil {
		return true
	}
	return a.Datasets[dataset]
}

// AllowsCollection reports whether the given collection id is visible.
func (a *Authorization) AllowsCollection(id int) bool {
	if a == nil || a.IsAdmin {
		return true
	}
	if a.CollectionIDs == nil {
		return true
	}
	return a.CollectionIDs[id]
}

// IntersectDatasets intersects the caller-requested dataset filter values
// with what this authorization allows. Values outside the allowed set are
// silently dropped, not rejected (spec §7.2: "mismatched values are
// silently dropped").
func (a *Authorization) IntersectDatasets(requested []string) []string {
	if a == nil || a.IsAdmin || a.Datasets == nil {
		return requested
	}
	if len(requested) == 0 {
		out := make([]string, 0, len(a.Datasets))
		for d := range a.Datasets {
			out = append(out, d)
		}
		return out
	}
	var out []string
	for _, d := range requested {
		if a.Datasets[d] {
			out = append(out, d)
		}
	}
	return out
}

// IntersectCollections intersects the caller-requested collection_id filter
// values with what this authorization allows, the OpenAleph-mode analogue
// of IntersectDatasets. `view.CollectionIDs` carries values as strings, so
// each is parsed before the lookup; unparseable values and values outside
// the allowed set are silently dropped, not rejected (spec §7.2).
func (a *Authorization) IntersectCollections(requested []string) []string {
	if a == nil || a.IsAdmin || a.CollectionIDs == nil {
		return requested
	}
	if len(requested) == 0 {
		out := make([]string, 0, len(a.CollectionIDs))
		for id := range a.CollectionIDs {
			out = append(out, strconv.Itoa(id))
		}
		return out
	}
	var out []string
	for _, r := range requested {
		id, err := strconv.Atoi(r)
		if err != nil {
			continue
		}
		if a.CollectionIDs[id] {
			out = append(out, r)
		}
	}
	return out
}

// Field returns the ES field authorization should scope on, given OpenAleph
// mode (collection_id) vs default (dataset).
func Field(openAlephMode bool) string {
	if openAlephMode {
		return "collection_id"
	}
	return "dataset"
}
