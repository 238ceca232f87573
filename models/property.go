package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidProperty is returned when a profile property is not an object
// with string "name" and "value" members.
var ErrInvalidProperty = errors.New("invalid profile property")

// Property is a single entry of a forwarded game profile's property list.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signed    *bool  `json:"signed,omitempty"`
	Signature string `json:"signature,omitempty"`

	// raw holds the compacted object this property was decoded from, so
	// members we don't model survive re-encoding.
	raw json.RawMessage
}

// PropertyList is the ordered property list of a forwarded profile.
type PropertyList []Property

// Find returns the first property with the given name.
func (l PropertyList) Find(name string) (Property, bool) {
	for _, p := range l {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

func (p *Property) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidProperty)
	}

	var out Property
	if err := stringMember(fields, "name", &out.Name, true); err != nil {
		return err
	}
	if out.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidProperty)
	}
	if err := stringMember(fields, "value", &out.Value, true); err != nil {
		return err
	}
	if err := stringMember(fields, "signature", &out.Signature, false); err != nil {
		return err
	}
	if v, ok := fields["signed"]; ok && !isNull(v) {
		var signed bool
		if err := json.Unmarshal(v, &signed); err != nil {
			return fmt.Errorf("%w: signed: %v", ErrInvalidProperty, err)
		}
		out.Signed = &signed
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProperty, err)
	}
	out.raw = buf.Bytes()

	*p = out
	return nil
}

func (p Property) MarshalJSON() ([]byte, error) {
	if p.raw != nil {
		return p.raw, nil
	}
	type plain Property
	return json.Marshal(plain(p))
}

func stringMember(fields map[string]json.RawMessage, key string, dst *string, required bool) error {
	v, ok := fields[key]
	if !ok || isNull(v) {
		if required {
			return fmt.Errorf("%w: missing %s", ErrInvalidProperty, key)
		}
		return nil
	}
	if len(v) == 0 || v[0] != '"' {
		return fmt.Errorf("%w: %s is not a string", ErrInvalidProperty, key)
	}
	if err := json.Unmarshal(v, dst); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidProperty, key, err)
	}
	return nil
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
