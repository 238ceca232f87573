package constants

// Serverbound
const (
	HandshakeID     = 0x00
	StatusRequestID = 0x00
	StatusPingID    = 0x01
)

// Clientbound
const (
	StatusResponseID = 0x00
	StatusPongID     = 0x01
	LoginDisconnect  = 0x00
)
