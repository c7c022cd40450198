package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Reading is one parameter value in an assignment
type Reading struct {
	Key   string
	Value Value
}

// Assignment maps parameter keys to values, keeping insertion order.
// Zero value is an empty assignment.
type Assignment struct {
	readings []Reading
	index    map[string]int
}

// NewAssignment from readings; later duplicates replace earlier ones in place
func NewAssignment(readings ...Reading) *Assignment {
	a := &Assignment{}
	for _, r := range readings {
		a.Set(r.Key, r.Value)
	}
	return a
}

// Set adds or replaces a reading. Replacing keeps the original position.
func (a *Assignment) Set(key string, v Value) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[key]; ok {
		a.readings[i].Value = v
		return
	}
	a.index[key] = len(a.readings)
	a.readings = append(a.readings, Reading{Key: key, Value: v})
}

// Get value by key
func (a *Assignment) Get(key string) (Value, bool) {
	if a == nil || a.index == nil {
		return Value{}, false
	}
	i, ok := a.index[key]
	if !ok {
		return Value{}, false
	}
	return a.readings[i].Value, true
}

// Readings in insertion order (copy)
func (a *Assignment) Readings() []Reading {
	if a == nil {
		return nil
	}
	out := make([]Reading, len(a.readings))
	copy(out, a.readings)
	return out
}

// Len readings
func (a *Assignment) Len() int {
	if a == nil {
		return 0
	}
	return len(a.readings)
}

// MarshalJSON as an object in insertion order
func (a *Assignment) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range a.Readings() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(r.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Value.Interface())
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object of key -> number|bool, keeping key order
func (a *Assignment) UnmarshalJSON(data []byte) error {
	*a = Assignment{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil // null
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("assignment must be a JSON object")
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case bool:
			a.Set(key, Bool(v))
		case json.Number:
			f, err := v.Float64()
			if err != nil {
				return fmt.Errorf("parameter %q: %w", key, err)
			}
			a.Set(key, Number(f))
		default:
			return fmt.Errorf("parameter %q: value must be a number or boolean", key)
		}
	}

	_, err = dec.Token() // closing brace
	return err
}
