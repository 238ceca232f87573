package models

import "github.com/google/uuid"

// HandshakePayload is the IP forwarding data a proxy packs into the server
// address field of a handshake.
type HandshakePayload struct {
	// Hostname is the virtual host the player connected to.
	Hostname string
	// Address is the player's address as seen by the proxy.
	Address  string
	PlayerID uuid.UUID
	// Properties is the raw JSON property list, nil for the legacy
	// three field form.
	Properties *string
}

// WithProperties returns a copy of p carrying the given property JSON.
func (p HandshakePayload) WithProperties(raw string) HandshakePayload {
	p.Properties = &raw
	return p
}
