package constants

const (
	MCVersion  = "1.16.3"
	MCProtocol = 753
)

// Connection states as sent in the handshake's next state field.
const (
	Handshaking = iota
	Status
	Login
	Play
)

const (
	// TokenProperty is the reserved profile property carrying the proxy's secret.
	TokenProperty = "bungeeguard-token"

	// MaxHandshakePacket bounds the handshake packet read from a client. The
	// forwarded address field may hold up to 32767 characters of property data.
	MaxHandshakePacket = 1 << 17
)
