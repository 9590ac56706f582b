package ftm

// BuiltinSchemata returns a small, self-consistent slice of FtM schemata
// covering the bucket classes referenced throughout this repo (things,
// documents, pages, intervals). It exists so the search core and its tests
// can run against a real Catalog without depending on the full upstream FtM
// Python model or its generated schema.yaml bundle — production embedders
// are expected to supply their own Catalog built from the real model.
func BuiltinSchemata() []*Schema {
	prop := func(name string, g TypeGroup, matchable bool) *Property {
		return &Property{Name: name, TypeGroup: g, IsMatchable: matchable}
	}

	thing := &Schema{
		Name: "Thing", Abstract: true, Matchable: false,
		Ancestors: []string{"Thing"},
		Properties: map[string]*Property{
			"name":        prop("name", GroupName, false),
			"country":     prop("country", GroupCountry, false),
			"notes":       prop("notes", GroupText, false),
			"description": prop("description", GroupText, false),
			"topics":      prop("topics", GroupTopic, false),
		},
	}
	legalEntity := &Schema{
		Name: "LegalEntity", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "LegalEntity"},
		Properties: merge(thing.Properties, map[string]*Property{
			"alias":       prop("alias", GroupName, false),
			"previousName": prop("previousName", GroupName, false),
			"weakAlias":   prop("weakAlias", GroupName, false),
			"email":       prop("email", GroupEmail, true),
			"phone":       prop("phone", GroupPhone, true),
			"address":     prop("address", GroupAddress, false),
			"registrationNumber": prop("registrationNumber", GroupIdentifier, true),
			"taxNumber":   prop("taxNumber", GroupIdentifier, true),
			"website":     prop("website", GroupURL, true),
			"gender":      prop("gender", GroupGender, false),
		}),
		MatchableSchemata: []string{"LegalEntity", "Person", "Organization", "Company", "PublicBody"},
	}
	person := &Schema{
		Name: "Person", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "LegalEntity", "Person"},
		Properties: merge(legalEntity.Properties, map[string]*Property{
			"birthDate":  prop("birthDate", GroupDate, false),
			"passportNumber": prop("passportNumber", GroupIdentifier, true),
			"nationality": prop("nationality", GroupCountry, false),
		}),
		MatchableSchemata: []string{"Person", "LegalEntity"},
	}
	organization := &Schema{
		Name: "Organization", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "LegalEntity", "Organization"},
		Properties: merge(legalEntity.Properties, map[string]*Property{
			"opencorporatesUrl": prop("opencorporatesUrl", GroupURL, false),
		}),
		MatchableSchemata: []string{"Organization", "Company", "LegalEntity", "PublicBody"},
	}
	company := &Schema{
		Name: "Company", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "LegalEntity", "Organization", "Company"},
		Properties: merge(organization.Properties, map[string]*Property{
			"jurisdiction": prop("jurisdiction", GroupCountry, false),
			"incorporationDate": prop("incorporationDate", GroupDate, false),
		}),
		MatchableSchemata: []string{"Company", "Organization", "LegalEntity", "PublicBody"},
	}
	publicBody := &Schema{
		Name: "PublicBody", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "LegalEntity", "Organization", "PublicBody"},
		Properties: merge(organization.Properties, map[string]*Property{}),
		MatchableSchemata: []string{"PublicBody", "Organization", "Company", "LegalEntity"},
	}
	address := &Schema{
		Name: "Address", Abstract: false, Matchable: false,
		Ancestors: []string{"Thing", "Address"},
		Properties: merge(thing.Properties, map[string]*Property{
			"full":      prop("full", GroupAddress, false),
			"city":      prop("city", GroupAddress, false),
			"latitude":  prop("latitude", GroupNumber, false),
			"longitude": prop("longitude", GroupNumber, false),
		}),
	}
	document := &Schema{
		Name: "Document", Abstract: false, Matchable: false,
		Ancestors: []string{"Thing", "Document"},
		Properties: merge(thing.Properties, map[string]*Property{
			"fileName":    prop("fileName", GroupName, false),
			"mimeType":    prop("mimeType", GroupMimetype, false),
			"bodyText":    prop("bodyText", GroupText, false),
			"indexText":   prop("indexText", GroupText, false),
			"contentHash": prop("contentHash", GroupChecksum, false),
			"sourceUrl":   prop("sourceUrl", GroupURL, false),
		}),
	}
	pages := &Schema{
		Name: "Pages", Abstract: false, Matchable: false,
		Ancestors: []string{"Thing", "Document", "Pages"},
		Properties: merge(document.Properties, map[string]*Property{}),
	}
	interval := &Schema{
		Name: "Interval", Abstract: true, Matchable: false,
		Ancestors: []string{"Thing", "Interval"},
		Properties: merge(thing.Properties, map[string]*Property{
			"startDate": prop("startDate", GroupDate, false),
			"endDate":   prop("endDate", GroupDate, false),
		}),
	}
	event := &Schema{
		Name: "Event", Abstract: false, Matchable: true,
		Ancestors: []string{"Thing", "Interval", "Event"},
		Properties: merge(interval.Properties, map[string]*Property{
			"date": prop("date", GroupDate, false),
		}),
		MatchableSchemata: []string{"Event"},
	}

	return []*Schema{
		thing, legalEntity, person, organization, company, publicBody,
		address, document, pages, interval, event,
	}
}

func merge(maps ...map[string]*Property) map[string]*Property {
	out := make(map[string]*Property)
	for _, m := range maps {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}
