package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ResultField is the key the transfer outcome is written under.
const ResultField = "transfer_service"

// Record is one inbound JSON object. Keys keep their input order and values
// are carried through untouched, so callers get back exactly what they sent
// plus the result field.
type Record struct {
	keys   []string
	values map[string]json.RawMessage
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{values: make(map[string]json.RawMessage)}
}

// Keys returns the keys in input order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// String returns the value under key when it is a JSON string.
// present reports whether the key exists with a non-null value.
func (r *Record) String(key string) (value string, present bool, err error) {
	raw, ok := r.values[key]
	if !ok || bytes.Equal(raw, []byte("null")) {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, fmt.Errorf("field %q is not a string", key)
	}
	return value, true, nil
}

// SetString stores a string value. Existing keys are replaced in place,
// new keys are appended.
func (r *Record) SetString(key, value string) {
	raw, _ := json.Marshal(value)
	r.set(key, raw)
}

func (r *Record) set(key string, raw json.RawMessage) {
	if r.values == nil {
		r.values = make(map[string]json.RawMessage)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = raw
}

// UnmarshalJSON decodes a JSON object while remembering key order.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("record must be a JSON object")
	}

	r.keys = nil
	r.values = make(map[string]json.RawMessage)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v in record", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode field %q: %w", key, err)
		}
		r.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}

// MarshalJSON encodes the record with keys in their original order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(r.values[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
