package query

import (
	"bytes"
	"encoding/json"
)

// Project serialises records and keeps only the keys allowed by p. The id key
// always survives.
func Project[T any](records []T, p Projection) ([]map[string]interface{}, error) {
	out := make([]map[string]interface{}, 0, len(records))
	for i := range records {
		doc, err := ProjectOne(records[i], p)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// ProjectOne is Project for a single record.
func ProjectOne(record interface{}, p Projection) (map[string]interface{}, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	doc := map[string]interface{}{}
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	if len(p.Include) > 0 {
		keep := map[string]bool{"id": true}
		for _, name := range p.Include {
			keep[name] = true
		}
		for key := range doc {
			if !keep[key] {
				delete(doc, key)
			}
		}
		return doc, nil
	}

	for _, name := range p.Exclude {
		if name != "id" {
			delete(doc, name)
		}
	}
	return doc, nil
}
