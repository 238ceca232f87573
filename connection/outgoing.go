package connection

import (
	"github.com/Tnze/go-mc/net"
)

// Outgoing represents the connection to the backend server.
type Outgoing struct {
	Connection *net.Conn
}

// CreateOutgoing opens a connection to the backend server.
func CreateOutgoing(addr string) (*Outgoing, error) {
	conn, err := net.DialMC(addr)
	if err != nil {
		return nil, err
	}
	return &Outgoing{Connection: conn}, nil
}

func (o *Outgoing) Close() {
	o.Connection.Close()
}
