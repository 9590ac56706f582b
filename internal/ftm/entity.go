package ftm

// Proxy is the minimal FtM entity shape the search core consumes: an id, a
// schema name, a bag of property name -> values, and the dataset it belongs
// to. It mirrors `followthemoney.EntityProxy` closely enough for matching
// and indexing purposes without depending on the real FtM Python/Go model.
type Proxy struct {
	ID           string
	Schema       string
	Properties   map[string][]string
	Dataset      string
	CollectionID string
}

// Get returns all values of a property, or nil if absent.
func (p *Proxy) Get(prop string) []string {
	if p.Properties == nil {
		return nil
	}
	return p.Properties[prop]
}

// First returns the first value of a property, or "".
func (p *Proxy) First(prop string) string {
	vs := p.Get(prop)
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Names returns all values of every name-group property on the schema,
// i.e. every string this entity could be matched or displayed by.
func (p *Proxy) Names(schema *Schema) []string {
	var out []string
	seen := map[string]bool{}
	for _, prop := range schema.Properties {
		if prop.TypeGroup != GroupName {
			continue
		}
		for _, v := range p.Get(prop.Name) {
			if v != "" && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// NumValues sums the number of values across all properties, used for the
// function_score field_value_factor boost (spec §3, §4.4).
func (p *Proxy) NumValues() int {
	n := 0
	for _, vs := range p.Properties {
		n += len(vs)
	}
	return n
}
