package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/skyezerfox/bungeeguard/models"
)

// ParseProperties decodes a forwarded property list.
func ParseProperties(raw string) (models.PropertyList, error) {
	var list models.PropertyList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProperties, err)
	}
	if list == nil {
		// "null" decodes without error
		return nil, fmt.Errorf("%w: not an array", ErrMalformedProperties)
	}
	return list, nil
}

// SanitizeProperties returns list without any property called name. The
// order of the remaining properties is kept.
func SanitizeProperties(list models.PropertyList, name string) models.PropertyList {
	out := make(models.PropertyList, 0, len(list))
	for _, p := range list {
		if p.Name != name {
			out = append(out, p)
		}
	}
	return out
}

// EncodeProperties renders list as a compact JSON array.
func EncodeProperties(list models.PropertyList) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, p := range list {
		if i > 0 {
			buf.WriteByte(',')
		}
		b, err := json.Marshal(p)
		if err != nil {
			return "", err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.String(), nil
}
