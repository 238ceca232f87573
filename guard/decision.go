package guard

import "github.com/skyezerfox/bungeeguard/models"

// Reason is why a handshake was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonMalformed covers forwarding data that could not be decoded.
	ReasonMalformed
	// ReasonNoProperties covers a missing, empty or token-less property
	// list. These are deliberately not told apart.
	ReasonNoProperties
	// ReasonInvalidToken is a token that isn't allowed.
	ReasonInvalidToken
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonMalformed:
		return "malformed"
	case ReasonNoProperties:
		return "no-properties"
	case ReasonInvalidToken:
		return "invalid-token"
	}
	return "unknown"
}

// Decision is the outcome of evaluating one handshake.
type Decision struct {
	Accepted bool
	// Payload is the sanitized forwarding data of an accepted handshake.
	Payload models.HandshakePayload
	Reason  Reason
	// Message is the kick message for a rejected handshake.
	Message string
}

func accept(p models.HandshakePayload) Decision {
	return Decision{Accepted: true, Payload: p}
}

func reject(r Reason, message string) Decision {
	return Decision{Reason: r, Message: message}
}

// KickMessages are shown to rejected players, one per rejection category.
type KickMessages struct {
	NoData       string
	NoProperties string
	InvalidToken string
}

// DefaultKickMessages are used when none are configured.
var DefaultKickMessages = KickMessages{
	NoData:       "§cUnable to authenticate - no data was forwarded by the proxy.",
	NoProperties: "§cUnable to authenticate.",
	InvalidToken: "§cUnable to authenticate.",
}

func (m KickMessages) forReason(r Reason) string {
	switch r {
	case ReasonNoProperties:
		return m.NoProperties
	case ReasonInvalidToken:
		return m.InvalidToken
	}
	return m.NoData
}
