// Package settings holds the process-wide configuration singleton (spec.md
// §6/§9), loaded once at startup from environment variables with the
// OPENALEPH_SEARCH_ prefix, the way the teacher's app/env/env.go loads its
// Config with github.com/caarlos0/env.
package settings

import (
	"github.com/caarlos0/env"

	lbryerrors "github.com/lbryio/lbry.go/v2/extras/errors"
)

// Settings is the flat, typed configuration map described in spec §6.
type Settings struct {
	URI string `env:"OPENALEPH_SEARCH_URI" envDefault:"http://localhost:9200"`

	Timeout    int `env:"OPENALEPH_SEARCH_TIMEOUT" envDefault:"60"`
	MaxRetries int `env:"OPENALEPH_SEARCH_MAX_RETRIES" envDefault:"3"`

	IndexerConcurrency    int `env:"OPENALEPH_SEARCH_INDEXER_CONCURRENCY" envDefault:"8"`
	IndexerChunkSize      int `env:"OPENALEPH_SEARCH_INDEXER_CHUNK_SIZE" envDefault:"1000"`
	IndexerMaxChunkBytes  int `env:"OPENALEPH_SEARCH_INDEXER_MAX_CHUNK_BYTES" envDefault:"5242880"`
	IndexerMaxRetries     int `env:"OPENALEPH_SEARCH_INDEXER_MAX_RETRIES" envDefault:"5"`

	IndexPrefix         string   `env:"OPENALEPH_SEARCH_INDEX_PREFIX" envDefault:"openaleph"`
	IndexWrite          string   `env:"OPENALEPH_SEARCH_INDEX_WRITE" envDefault:"v1"`
	IndexRead           []string `env:"OPENALEPH_SEARCH_INDEX_READ" envSeparator:"," envDefault:"v1"`
	IndexShards         int      `env:"OPENALEPH_SEARCH_INDEX_SHARDS" envDefault:"10"`
	IndexReplicas       int      `env:"OPENALEPH_SEARCH_INDEX_REPLICAS" envDefault:"0"`
	IndexNamespaceIDs   bool     `env:"OPENALEPH_SEARCH_INDEX_NAMESPACE_IDS" envDefault:"true"`
	IndexRefreshInterval string  `env:"OPENALEPH_SEARCH_INDEX_REFRESH_INTERVAL" envDefault:"1s"`

	IndexBoostIntervals float64 `env:"OPENALEPH_SEARCH_INDEX_BOOST_INTERVALS" envDefault:"1"`
	IndexBoostThings    float64 `env:"OPENALEPH_SEARCH_INDEX_BOOST_THINGS" envDefault:"1"`
	IndexBoostDocuments float64 `env:"OPENALEPH_SEARCH_INDEX_BOOST_DOCUMENTS" envDefault:"1"`
	IndexBoostPages     float64 `env:"OPENALEPH_SEARCH_INDEX_BOOST_PAGES" envDefault:"1"`

	ContentTermVectors bool `env:"OPENALEPH_SEARCH_CONTENT_TERM_VECTORS" envDefault:"true"`

	HighlighterFVHEnabled        bool `env:"OPENALEPH_SEARCH_HIGHLIGHTER_FVH_ENABLED" envDefault:"false"`
	HighlighterFragmentSize      int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_FRAGMENT_SIZE" envDefault:"200"`
	HighlighterNumberOfFragments int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_NUMBER_OF_FRAGMENTS" envDefault:"3"`
	HighlighterPhraseLimit       int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_PHRASE_LIMIT" envDefault:"64"`
	HighlighterBoundaryMaxScan   int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_BOUNDARY_MAX_SCAN" envDefault:"100"`
	HighlighterNoMatchSize       int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_NO_MATCH_SIZE" envDefault:"300"`
	HighlighterMaxAnalyzedOffset int  `env:"OPENALEPH_SEARCH_HIGHLIGHTER_MAX_ANALYZED_OFFSET" envDefault:"999999"`

	SearchAuth      bool   `env:"OPENALEPH_SEARCH_SEARCH_AUTH" envDefault:"false"`
	SearchAuthField string `env:"OPENALEPH_SEARCH_SEARCH_AUTH_FIELD" envDefault:"dataset"`

	SignificantTermsSamplerSize   int  `env:"OPENALEPH_SEARCH_SIGNIFICANT_TERMS_SAMPLER_SIZE" envDefault:"1000"`
	MinDocCount                   int  `env:"OPENALEPH_SEARCH_MIN_DOC_COUNT" envDefault:"3"`
	ShardMinDocCount               int  `env:"OPENALEPH_SEARCH_SHARD_MIN_DOC_COUNT" envDefault:"1"`
	SignificantTermsRandomSampler bool `env:"OPENALEPH_SEARCH_SIGNIFICANT_TERMS_RANDOM_SAMPLER" envDefault:"false"`

	OpenAlephMode bool `env:"OPENALEPH_SEARCH_OPENALEPH_MODE" envDefault:"false"`

	SlackHookURL string `env:"OPENALEPH_SEARCH_SLACK_HOOK_URL"`
	SlackChannel string `env:"OPENALEPH_SEARCH_SLACK_CHANNEL"`

	Testing bool `env:"OPENALEPH_SEARCH_TESTING" envDefault:"false"`
}

// MaxPage is the maximum value offset+limit may reach (spec §4.3).
const MaxPage = 9999

// NewFromEnv loads Settings from the process environment, mirroring
// app/env/env.go: NewWithEnvVars.
func NewFromEnv() (*Settings, error) {
	cfg := &Settings{}
	if err := env.Parse(cfg); err != nil {
		return nil, lbryerrors.Err(err)
	}
	return cfg, nil
}

// ReloadForTesting re-parses the environment into the given Settings value,
// the "reload from environment" testing helper called for by spec §9's
// design notes on the global-settings-singleton pattern.
func ReloadForTesting(s *Settings) error {
	return env.Parse(s)
}
