package market

import (
	"bytes"
	"encoding/json"
	"sort"
)

// envelopeShape locates the record list in one known response layout.
type envelopeShape struct {
	name   string
	locate func(payload any) ([]any, bool)
}

// envelopeShapes are tried in order; the first one that yields a list wins.
var envelopeShapes = []envelopeShape{
	{name: "records", locate: func(p any) ([]any, bool) { return listAt(p, "records") }},
	{name: "data", locate: func(p any) ([]any, bool) { return listAt(p, "data") }},
	{name: "data.records", locate: func(p any) ([]any, bool) {
		obj, ok := p.(map[string]any)
		if !ok {
			return nil, false
		}
		return listAt(obj["data"], "records")
	}},
	{name: "root", locate: func(p any) ([]any, bool) {
		list, ok := p.([]any)
		return list, ok
	}},
}

// Extract finds the record list inside an external payload, whichever
// envelope it arrived in. When no known shape matches, the first top-level
// key (in sorted order) holding a list is used. No match yields nil.
func Extract(payload any) []RawRecord {
	for _, shape := range envelopeShapes {
		if list, ok := shape.locate(payload); ok {
			return toRecords(list)
		}
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return toRecords(list)
		}
	}
	return nil
}

// ExtractJSON decodes body and extracts its records. Malformed JSON yields nil.
func ExtractJSON(body []byte) []RawRecord {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil
	}
	return Extract(payload)
}

func listAt(p any, key string) ([]any, bool) {
	obj, ok := p.(map[string]any)
	if !ok {
		return nil, false
	}
	list, ok := obj[key].([]any)
	return list, ok
}

// toRecords keeps only the object elements of list.
func toRecords(list []any) []RawRecord {
	out := make([]RawRecord, 0, len(list))
	for _, item := range list {
		switch rec := item.(type) {
		case map[string]any:
			out = append(out, RawRecord(rec))
		case RawRecord:
			out = append(out, rec)
		}
	}
	return out
}
