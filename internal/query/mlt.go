package query

import (
	"github.com/olivere/elastic/v7"

	"github.com/openaleph/openaleph-search/internal/auth"
	"github.com/openaleph/openaleph-search/internal/ftm"
	"github.com/openaleph/openaleph-search/internal/params"
)

// mltFields lists the fields MoreLikeThisQuery compares, matching spec
// §4.8 (the original's `more_like_this.py` used `content`/`name` only;
// the spec additionally folds in `text`/`names`).
var mltFields = []string{"content", "text", "name", "names"}

// documentSchemata restricts MoreLikeThisQuery's target index to the
// documents/pages buckets (spec §4.8, §8 scenario E).
var documentSchemata = []string{"Document", "Pages", "Page"}

// MoreLikeThisQuery finds documents/pages textually similar to a given
// entity, grounded on `query/more_like_this.py: more_like_this_query`.
type MoreLikeThisQuery struct {
	Entity    *ftm.Proxy
	Auth      *auth.Authorization
	AuthField string
	Datasets  []string

	MinDocFreq         int
	MinTermFreq        int
	MaxQueryTerms      int
	MinimumShouldMatch string

	QueryFunctionScore bool
	BucketBoosts       BucketBoosts
}

// defaults mirrors `more_like_this_query`'s own defaults, applied when the
// caller (the parsed parameter view) didn't override them.
func (m *MoreLikeThisQuery) defaults() (minDocFreq, minTermFreq, maxQueryTerms int, minimumShouldMatch string) {
	minDocFreq, minTermFreq, maxQueryTerms, minimumShouldMatch = 1, 1, 200, "10%"
	if m.MinDocFreq > 0 {
		minDocFreq = m.MinDocFreq
	}
	if m.MinTermFreq > 0 {
		minTermFreq = m.MinTermFreq
	}
	if m.MaxQueryTerms > 0 {
		maxQueryTerms = m.MaxQueryTerms
	}
	if m.MinimumShouldMatch != "" {
		minimumShouldMatch = m.MinimumShouldMatch
	}
	return
}

// Query builds the MoreLikeThisQuery request: match_none when the source
// entity has no id (spec's original guard), otherwise a bool query
// targeting the documents/pages bucket only.
func (m *MoreLikeThisQuery) Query() elastic.Query {
	if m.Entity == nil || m.Entity.ID == "" {
		return elastic.NewMatchNoneQuery()
	}
	minDocFreq, minTermFreq, maxQueryTerms, minimumShouldMatch := m.defaults()

	mlt := elastic.NewMoreLikeThisQuery().
		Fields(mltFields...).
		LikeItems(elastic.NewMoreLikeThisQueryItem().Id(m.Entity.ID)).
		MinTermFreq(minTermFreq).
		MaxQueryTerms(maxQueryTerms).
		MinDocFreq(minDocFreq).
		MinimumShouldMatch(minimumShouldMatch).
		MinWordLen(5).
		MaxDocFreq(500).
		BoostTerms(1)

	b := elastic.NewBoolQuery()
	b.Must(mlt)
	b.MustNot(elastic.NewIdsQuery().Ids(m.Entity.ID))
	b.MustNot(elastic.NewTermQuery("schema", "Page"))

	schemaValues := make([]interface{}, len(documentSchemata))
	for i, s := range documentSchemata {
		schemaValues[i] = s
	}
	b.Filter(elastic.NewTermsQuery("schema", schemaValues...))
	filters, _ := BaseFilters(&params.View{Datasets: m.Datasets}, m.Auth, m.AuthField, nil)
	b.Filter(filters...)

	return FunctionScoreWrap(b, m.QueryFunctionScore, m.BucketBoosts)
}
