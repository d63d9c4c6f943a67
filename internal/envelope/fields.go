// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package envelope

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// Fields is a name->value mapping built from an ordered parameter list.
// A repeated name keeps its first position and takes its last value.
type Fields struct {
	order  []string
	values map[string]json.RawMessage
}

// Flatten collapses params into Fields with last-write-wins semantics.
func Flatten(params []Parameter) *Fields {
	f := &Fields{values: make(map[string]json.RawMessage, len(params))}
	for _, p := range params {
		if _, seen := f.values[p.Name]; !seen {
			f.order = append(f.order, p.Name)
		}
		f.values[p.Name] = p.Value
	}
	return f
}

// Query renders the fields as URL query values.
func (f *Fields) Query() url.Values {
	q := make(url.Values, len(f.order))
	for _, name := range f.order {
		q.Set(name, valueText(f.values[name]))
	}
	return q
}

// MarshalJSON encodes the fields as a JSON object in insertion order.
// Values keep their original JSON type.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range f.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := json.Compact(&buf, f.values[name]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// valueText unquotes JSON strings and uses the literal text of anything else.
func valueText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}
