package workflow

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// rawObject is a JSON object split into raw members with their original
// order retained. It is the backing store for every typed object in the
// model: known members are lifted into struct fields on decode and written
// back on encode, unknown members pass through untouched.
type rawObject struct {
	keys []string
	vals map[string]json.RawMessage
}

func newRawObject() *rawObject {
	return &rawObject{vals: make(map[string]json.RawMessage)}
}

// decodeRawObject splits data (which must be a JSON object) into ordered raw
// members.
func decodeRawObject(data []byte) (*rawObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	obj := newRawObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", keyTok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decoding member %q: %w", key, err)
		}
		obj.set(key, raw)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func (o *rawObject) get(key string) (json.RawMessage, bool) {
	raw, ok := o.vals[key]
	return raw, ok
}

func (o *rawObject) has(key string) bool {
	_, ok := o.vals[key]
	return ok
}

// set replaces the member if present, otherwise appends it.
func (o *rawObject) set(key string, raw json.RawMessage) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = raw
}

// encode writes the object with members in their recorded order.
func (o *rawObject) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(o.vals[key])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
