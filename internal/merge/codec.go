package merge

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ToMap converts a JSON-taggable value into the decoded-JSON form Merge
// operates on. Numbers decode as json.Number so round-trips don't lose
// integer precision.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode for merge: %w", err)
	}
	return DecodeMap(raw)
}

// DecodeMap decodes raw JSON into the map form Merge operates on.
func DecodeMap(raw []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode for merge: %w", err)
	}
	return m, nil
}

// FromMap decodes a merged map back into a typed value.
func FromMap(m map[string]any, out any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode merged value: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode merged value: %w", err)
	}
	return nil
}
