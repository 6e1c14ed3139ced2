// Package optional provides tri-state JSON fields for partial updates, where
// an absent key, an explicit null, and a value are three different requests.
package optional

import "encoding/json"

// String distinguishes "leave unchanged" (not Set), "clear" (Set, nil Value)
// and "set to value" (Set, non-nil Value).
type String struct {
	Set   bool
	Value *string
}

func (s *String) UnmarshalJSON(data []byte) error {
	s.Set = true

	if string(data) == "null" {
		s.Value = nil
		return nil
	}

	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	s.Value = &v
	return nil
}

func (s String) MarshalJSON() ([]byte, error) {
	if !s.Set || s.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*s.Value)
}
