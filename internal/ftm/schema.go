// Package ftm abstracts the FollowTheMoney schema catalog that the search
// core consumes: schema lookup, matchable schemata, property descriptors and
// ancestor/descendant relationships. It is pure data, precomputed once per
// catalog load so that subsequent lookups are map reads (spec §9's "schema
// catalog with cyclic schema graph" guidance).
package ftm

import "fmt"

// TypeGroup is the FtM property type group. It determines which index group
// field (if any) a property's values are copied into.
type TypeGroup string

const (
	GroupName       TypeGroup = "name"
	GroupCountry    TypeGroup = "country"
	GroupLanguage   TypeGroup = "language"
	GroupEmail      TypeGroup = "email"
	GroupPhone      TypeGroup = "phone"
	GroupDate       TypeGroup = "date"
	GroupAddress    TypeGroup = "address"
	GroupIdentifier TypeGroup = "identifier"
	GroupIP         TypeGroup = "ip"
	GroupURL        TypeGroup = "url"
	GroupEntity     TypeGroup = "entity"
	GroupText       TypeGroup = "text"
	GroupHTML       TypeGroup = "html"
	GroupJSON       TypeGroup = "json"
	GroupNumber     TypeGroup = "number"
	GroupChecksum   TypeGroup = "checksum"
	GroupMimetype   TypeGroup = "mimetype"
	GroupGender     TypeGroup = "gender"
	GroupTopic      TypeGroup = "topic"
	GroupString     TypeGroup = "string"
)

// GroupField returns the plural index group field name for a type group, or
// "" if the group does not have one (names, numbers, and raw content types
// are handled by the name processor / numeric duplication / content copy_to
// instead of a dedicated group field).
func (g TypeGroup) GroupField() string {
	switch g {
	case GroupCountry:
		return "countries"
	case GroupLanguage:
		return "languages"
	case GroupEmail:
		return "emails"
	case GroupPhone:
		return "phones"
	case GroupDate:
		return "dates"
	case GroupAddress:
		return "addresses"
	case GroupIdentifier:
		return "identifiers"
	case GroupIP:
		return "ips"
	case GroupURL:
		return "urls"
	case GroupEntity:
		return "entities"
	case GroupChecksum:
		return "checksums"
	case GroupMimetype:
		return "mimetypes"
	case GroupGender:
		return "genders"
	case GroupTopic:
		return "topics"
	default:
		return ""
	}
}

// IsText reports whether values of this type group are free text that
// should copy_to the `content` field rather than `text` and whether the
// mapped ES field type should be "text" rather than "keyword".
func (g TypeGroup) IsText() bool {
	switch g {
	case GroupText, GroupHTML, GroupJSON:
		return true
	default:
		return false
	}
}

// IsNumeric reports whether this type group gets a numeric.<field> double
// duplicate for sorting/aggregation.
func (g TypeGroup) IsNumeric() bool {
	return g == GroupNumber || g == GroupDate
}

// Property describes one schema property.
type Property struct {
	Name        string
	TypeGroup   TypeGroup
	IsMatchable bool
	// Stub indicates the property is a reverse/computed property that
	// should not be indexed directly (mirrors FtM's `stub` properties).
	Stub bool
}

// Schema describes one FtM schema node.
type Schema struct {
	Name       string
	Abstract   bool
	Matchable  bool
	Ancestors  []string // includes Name itself
	Properties map[string]*Property
	// MatchableSchemata is the set of schema names considered compatible
	// match targets for entities of this schema (e.g. Company <-> LegalEntity).
	MatchableSchemata []string
}

// Catalog is the read-only, precomputed schema table the rest of the core
// depends on. Implementations are expected to build it once at startup.
type Catalog interface {
	Get(name string) (*Schema, bool)
	MustGet(name string) *Schema
	Schemata() []*Schema
	// Descendants returns all non-abstract schemata that are-a `name`,
	// including `name` itself if it is concrete.
	Descendants(name string) []*Schema
	// IsA reports whether `schema` is the same as or a descendant of `of`.
	IsA(schema, of string) bool
}

// MapCatalog is a simple in-memory Catalog backed by a name->Schema map,
// built once and safe for concurrent reads thereafter.
type MapCatalog struct {
	schemata map[string]*Schema
}

// NewMapCatalog builds a catalog from a flat list of schemata. Ancestor
// chains must already be fully expanded in each Schema.Ancestors (including
// the schema's own name) by the caller providing the catalog data, matching
// how FtM's schema.yaml inheritance is resolved once at model-load time.
func NewMapCatalog(schemata []*Schema) *MapCatalog {
	m := make(map[string]*Schema, len(schemata))
	for _, s := range schemata {
		m[s.Name] = s
	}
	return &MapCatalog{schemata: m}
}

func (c *MapCatalog) Get(name string) (*Schema, bool) {
	s, ok := c.schemata[name]
	return s, ok
}

func (c *MapCatalog) MustGet(name string) *Schema {
	s, ok := c.Get(name)
	if !ok {
		panic(fmt.Sprintf("ftm: unknown schema %q", name))
	}
	return s
}

func (c *MapCatalog) Schemata() []*Schema {
	out := make([]*Schema, 0, len(c.schemata))
	for _, s := range c.schemata {
		out = append(out, s)
	}
	return out
}

func (c *MapCatalog) Descendants(name string) []*Schema {
	var out []*Schema
	for _, s := range c.schemata {
		if s.Abstract {
			continue
		}
		if c.IsA(s.Name, name) {
			out = append(out, s)
		}
	}
	return out
}

func (c *MapCatalog) IsA(schema, of string) bool {
	s, ok := c.Get(schema)
	if !ok {
		return false
	}
	for _, a := range s.Ancestors {
		if a == of {
			return true
		}
	}
	return schema == of
}
