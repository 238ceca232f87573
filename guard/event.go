package guard

import "github.com/google/uuid"

// HandshakeEvent is the record a server hands to its handshake listeners.
// OriginalHandshake is the input, the rest is filled in by OnHandshake.
type HandshakeEvent struct {
	OriginalHandshake string

	ServerHostname        string
	SocketAddressHostname string
	UniqueID              uuid.UUID
	PropertiesJSON        string

	FailMessage string
	Failed      bool
}

// OnHandshake evaluates e and writes the outcome back into it. Events that
// have already failed are left alone.
func (g *Gatekeeper) OnHandshake(e *HandshakeEvent) {
	if e.Failed {
		return
	}

	d := g.Handle(e.OriginalHandshake)
	if !d.Accepted {
		e.FailMessage = d.Message
		e.Failed = true
		return
	}

	e.ServerHostname = d.Payload.Hostname
	e.SocketAddressHostname = d.Payload.Address
	e.UniqueID = d.Payload.PlayerID
	e.PropertiesJSON = *d.Payload.Properties
}
