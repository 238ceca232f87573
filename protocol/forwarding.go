package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/skyezerfox/bungeeguard/models"
)

// Separator splits the fields of a forwarded server address.
const Separator = "\x00"

var (
	// ErrMalformedHandshake is returned for forwarding data with the wrong
	// number of fields or an unparseable player id.
	ErrMalformedHandshake = errors.New("malformed forwarding data")
	// ErrMalformedProperties is returned for a property list that is not a
	// JSON array of well formed properties.
	ErrMalformedProperties = errors.New("malformed property list")
)

// Decode splits the server address field of a BungeeCord forwarded handshake
// into its parts. Three fields is the legacy form without properties, four
// fields carries the property list verbatim.
func Decode(raw string) (models.HandshakePayload, error) {
	fields := strings.Split(raw, Separator)
	for len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}
	if len(fields) != 3 && len(fields) != 4 {
		return models.HandshakePayload{}, fmt.Errorf("%w: %d fields", ErrMalformedHandshake, len(fields))
	}

	id, err := ParsePlayerID(fields[2])
	if err != nil {
		return models.HandshakePayload{}, err
	}

	p := models.HandshakePayload{
		Hostname: fields[0],
		Address:  fields[1],
		PlayerID: id,
	}
	if len(fields) == 4 {
		p = p.WithProperties(fields[3])
	}
	return p, nil
}

// Encode is the inverse of Decode.
func Encode(p models.HandshakePayload) string {
	fields := []string{p.Hostname, p.Address, CompactUUID(p.PlayerID)}
	if p.Properties != nil {
		fields = append(fields, *p.Properties)
	}
	return strings.Join(fields, Separator)
}

// ParsePlayerID parses the 32 digit undashed hex form of a player id.
func ParsePlayerID(s string) (uuid.UUID, error) {
	if len(s) != 32 {
		return uuid.Nil, fmt.Errorf("%w: player id %q has length %d", ErrMalformedHandshake, s, len(s))
	}
	if _, err := hex.DecodeString(s); err != nil {
		return uuid.Nil, fmt.Errorf("%w: player id %q: %v", ErrMalformedHandshake, s, err)
	}
	id, err := uuid.Parse(s[0:8] + "-" + s[8:12] + "-" + s[12:16] + "-" + s[16:20] + "-" + s[20:32])
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: player id %q: %v", ErrMalformedHandshake, s, err)
	}
	return id, nil
}

// CompactUUID renders id without dashes, as the forwarding format expects.
func CompactUUID(id uuid.UUID) string {
	return hex.EncodeToString(id[:])
}
