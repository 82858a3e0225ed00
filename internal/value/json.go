package value

import (
	"encoding/json"
	"fmt"

	ctyjson "github.com/zclconf/go-cty/cty/json"
)

type wireValue struct {
	Type  Type            `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes v as {"type":"int","value":3}.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid() {
		return []byte("null"), nil
	}
	raw, err := ctyjson.Marshal(v.Cty(), v.typ.CtyType())
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Type: v.typ, Value: raw})
}

// UnmarshalJSON decodes the form written by MarshalJSON. A missing "value"
// yields the default of the declared type.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var w wireValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if !w.Type.Valid() {
		return fmt.Errorf("value is missing its type")
	}
	if len(w.Value) == 0 {
		*v = Default(w.Type)
		return nil
	}
	cv, err := ctyjson.Unmarshal(w.Value, w.Type.CtyType())
	if err != nil {
		return fmt.Errorf("decoding %s value: %w", w.Type, err)
	}
	parsed, err := FromCty(cv, w.Type)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
