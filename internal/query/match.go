package query

import (
	"fmt"

	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/nameproc"
	"github.com/openaleph/openaleph-search/internal/params"
)

// MaxClauses bounds the total clause count of a MatchQuery (spec §4.5,
// §8.6).
const MaxClauses = 500

// MatchQuery finds entities similar to a given entity, the Go analogue of
// `query/queries.py: MatchQuery` + the (unretrieved) `matching.py:
// match_query` helper, rebuilt here directly from spec §4.5.
type MatchQuery struct {
	Entity      *ftm.Proxy
	Catalog     ftm.Catalog
	SymbolTable nameproc.SymbolTable
	Exclude     []string
	Auth        *auth.Authorization
	AuthField   string
	Datasets    []string

	QueryFunctionScore bool
	BucketBoosts       BucketBoosts
}

// SchemaError reports that an entity's schema cannot be matched (spec §7
// kind 3).
type SchemaError struct {
	Schema string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("cannot match schema %q: %s", e.Schema, e.Reason)
}

// MatchableSchemata returns the set of index schemata a MatchQuery should
// search, or a *SchemaError if the entity's own schema is unknown or
// unmatchable.
func (m *MatchQuery) MatchableSchemata() ([]string, error) {
	if m.Entity == nil || m.Entity.Schema == "" {
		return nil, &SchemaError{Reason: "entity has no schema"}
	}
	schema, ok := m.Catalog.Get(m.Entity.Schema)
	if !ok {
		return nil, &SchemaError{Schema: m.Entity.Schema, Reason: "unknown schema"}
	}
	if !schema.Matchable || len(schema.MatchableSchemata) == 0 {
		return nil, &SchemaError{Schema: m.Entity.Schema, Reason: "schema is not matchable"}
	}
	return schema.MatchableSchemata, nil
}

// Query builds the full MatchQuery request, enforcing MaxClauses by
// truncating the should-scoring block first (spec §4.5: "further clauses
// past MAX_CLAUSES are dropped from the end of the sorted scoring list").
func (m *MatchQuery) Query() (elastic.Query, error) {
	if _, err := m.MatchableSchemata(); err != nil {
		return nil, err
	}
	schema := m.Catalog.MustGet(m.Entity.Schema)
	names := m.Entity.Names(schema)

	b := elastic.NewBoolQuery()

	nameBlock := m.nameBlock(schema, names)
	identifierBlock := m.identifierBlock(schema)
	scoring := m.propertyScoring(schema)

	clauseCount := len(nameBlock) + len(identifierBlock)
	budget := MaxClauses - clauseCount
	if budget < 0 {
		budget = 0
	}
	if len(scoring) > budget {
		scoring = scoring[:budget]
	}

	must := elastic.NewBoolQuery().MinimumShouldMatch("1")
	for _, q := range nameBlock {
		must.Should(q)
	}
	b.Must(must)

	if len(identifierBlock) > 0 {
		idBlock := elastic.NewBoolQuery().MinimumShouldMatch("0")
		for _, q := range identifierBlock {
			idBlock.Should(q)
		}
		b.Must(idBlock)
	}

	for _, q := range scoring {
		b.Should(q)
	}

	exclude := append([]string{m.Entity.ID}, m.Exclude...)
	b.MustNot(elastic.NewIdsQuery().Ids(exclude...))

	filters, _ := BaseFilters(&params.View{Datasets: m.Datasets}, m.Auth, m.AuthField, nil)
	b.Filter(filters...)

	return FunctionScoreWrap(b, m.QueryFunctionScore, m.BucketBoosts), nil
}

// nameBlock builds the must-block of name-derived clauses (spec §4.5).
func (m *MatchQuery) nameBlock(schema *ftm.Schema, names []string) []elastic.Query {
	var out []elastic.Query
	for _, n := range nameproc.PickNames(names, 5) {
		out = append(out, elastic.NewMatchQuery("names", n).
			Operator("AND").Fuzziness("AUTO").Boost(3.0))
	}
	for _, k := range nameproc.NameKeys(schema, names) {
		out = append(out, elastic.NewTermQuery("name_keys", k).Boost(4.0))
	}
	for _, p := range nameproc.NameParts(schema, names) {
		out = append(out, elastic.NewTermQuery("name_parts", p).Boost(1.0))
	}
	for _, ph := range nameproc.Phonetic(schema, names) {
		out = append(out, elastic.NewTermQuery("name_phonetic", ph).Boost(0.8))
	}
	for _, s := range nameproc.Symbols(m.SymbolTable, names) {
		out = append(out, elastic.NewTermQuery("name_symbols", s))
	}
	return out
}

// identifierBlock builds the must-block of identifier-typed property
// clauses (spec §4.5).
func (m *MatchQuery) identifierBlock(schema *ftm.Schema) []elastic.Query {
	var out []elastic.Query
	for _, prop := range schema.Properties {
		if prop.TypeGroup != ftm.GroupIdentifier {
			continue
		}
		for _, v := range m.Entity.Get(prop.Name) {
			out = append(out, elastic.NewTermQuery("properties."+prop.Name, v).Boost(3.0))
		}
	}
	return out
}

// scoredBoostGroups lists the high-precision group fields that get a small
// fixed boost, matching spec §4.5's `{ip, url, email, phone}` list.
var scoredBoostGroups = map[ftm.TypeGroup]bool{
	ftm.GroupIP: true, ftm.GroupURL: true, ftm.GroupEmail: true, ftm.GroupPhone: true,
}

// propertyScoring builds the should-scoring block, ordered by property
// specificity descending: boosted groups first, then everything else
// (spec §4.5).
func (m *MatchQuery) propertyScoring(schema *ftm.Schema) []elastic.Query {
	var boosted, plain []elastic.Query
	for _, prop := range schema.Properties {
		if prop.TypeGroup == ftm.GroupName || prop.TypeGroup == ftm.GroupIdentifier {
			continue
		}
		field := prop.TypeGroup.GroupField()
		if field == "" {
			continue
		}
		for _, v := range m.Entity.Get(prop.Name) {
			if scoredBoostGroups[prop.TypeGroup] {
				boosted = append(boosted, elastic.NewTermQuery(field, v).Boost(2.0))
			} else {
				plain = append(plain, elastic.NewTermQuery(field, v))
			}
		}
	}
	return append(boosted, plain...)
}
