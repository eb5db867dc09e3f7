package apperr

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// FieldError holds the messages reported for one input field.
type FieldError struct {
	Field    string
	Messages []string
}

// FieldErrors is an ordered field -> messages mapping. It serialises as a
// JSON object whose keys keep insertion order.
type FieldErrors []FieldError

// Add appends msg to field, creating the entry on first use.
func (f FieldErrors) Add(field, msg string) FieldErrors {
	for i := range f {
		if f[i].Field == field {
			f[i].Messages = append(f[i].Messages, msg)
			return f
		}
	}
	return append(f, FieldError{Field: field, Messages: []string{msg}})
}

// Get returns the messages recorded for field.
func (f FieldErrors) Get(field string) []string {
	for _, fe := range f {
		if fe.Field == field {
			return fe.Messages
		}
	}
	return nil
}

// Has reports whether field has at least one message.
func (f FieldErrors) Has(field string) bool { return len(f.Get(field)) > 0 }

// Message renders the human summary used as the error message:
// `Email is required, Password: Too short and Needs a digit`.
func (f FieldErrors) Message() string {
	parts := make([]string, 0, len(f))
	for _, fe := range f {
		name := capitalize(fe.Field)
		if len(fe.Messages) == 1 && fe.Messages[0] == "Required" {
			parts = append(parts, name+" is required")
			continue
		}
		parts = append(parts, name+": "+strings.Join(fe.Messages, " and "))
	}
	return strings.Join(parts, ", ")
}

// MarshalJSON writes {"field": ["msg", ...], ...} in insertion order.
func (f FieldErrors) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fe := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(fe.Field)
		if err != nil {
			return nil, err
		}
		msgs := fe.Messages
		if msgs == nil {
			msgs = []string{}
		}
		v, err := json.Marshal(msgs)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form. Key order is not preserved by the
// decoder, so entries are sorted by field name.
func (f *FieldErrors) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*f = nil
		return nil
	}
	var m map[string][]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(FieldErrors, 0, len(keys))
	for _, k := range keys {
		out = append(out, FieldError{Field: k, Messages: m[k]})
	}
	*f = out
	return nil
}
