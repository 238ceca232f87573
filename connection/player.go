package connection

import (
	"github.com/google/uuid"
)

// Player is an admitted player being relayed to the backend.
type Player struct {
	UUID uuid.UUID
	// Hostname is the virtual host the player joined through.
	Hostname string
	// Address is the player's own address as forwarded by the proxy.
	Address string
	// ProxyAddr is the address of the proxy connection we accepted.
	ProxyAddr string
}
