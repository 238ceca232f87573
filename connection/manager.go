package connection

import (
	"errors"
	"sync"
	"time"

	"github.com/Tnze/go-mc/net"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/bungeeguard/guard"
)

// Options configure how connections are handled.
type Options struct {
	// Backend is the address of the server admitted players are relayed to.
	Backend string
	// HandshakeTimeout bounds how long a client may take to send its handshake.
	HandshakeTimeout time.Duration

	// MOTD and MaxPlayers answer status pings while the backend is down.
	MOTD       string
	MaxPlayers int
}

// ConnectionManager tracks players relayed to the backend.
type ConnectionManager struct {
	sync.Mutex
	Players []*Player

	Gatekeeper *guard.Gatekeeper
	Options    Options

	closed bool
}

// NewConnectionManager creates a new connection manager.
func NewConnectionManager(gk *guard.Gatekeeper, opts Options) *ConnectionManager {
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 5 * time.Second
	}
	return &ConnectionManager{
		Players:    make([]*Player, 0),
		Gatekeeper: gk,
		Options:    opts,
	}
}

// NewConnection wraps an accepted client connection.
func (cm *ConnectionManager) NewConnection(conn *net.Conn) *Incoming {
	return CreateIncoming(cm, conn)
}

// Serve accepts connections from l until Close is called.
func (cm *ConnectionManager) Serve(l *net.Listener) error {
	for {
		conn, err := l.Accept()
		if err != nil {
			if cm.isClosed() {
				return nil
			}
			var ne interface{ Temporary() bool }
			if errors.As(err, &ne) && ne.Temporary() {
				log.Warn().Err(err).Msg("Accept failed")
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return err
		}

		c := cm.NewConnection(&conn)
		go c.HandlePlayer()
	}
}

// Close marks the manager closed, the caller closes the listener.
func (cm *ConnectionManager) Close() {
	cm.Lock()
	defer cm.Unlock()
	cm.closed = true
}

func (cm *ConnectionManager) isClosed() bool {
	cm.Lock()
	defer cm.Unlock()
	return cm.closed
}

// AddPlayer adds a player to the connection manager.
func (cm *ConnectionManager) AddPlayer(p *Player) {
	cm.Lock()
	defer cm.Unlock()
	cm.Players = append(cm.Players, p)
}

func remove(s []*Player, i int) []*Player {
	s[len(s)-1], s[i] = s[i], s[len(s)-1]
	return s[:len(s)-1]
}

// RemovePlayer removes a player from the connection manager.
func (cm *ConnectionManager) RemovePlayer(p *Player) {
	cm.Lock()
	defer cm.Unlock()
	for i, c := range cm.Players {
		if c == p {
			cm.Players = remove(cm.Players, i)
			break
		}
	}
}

// GetPlayerCount returns the number of players currently relayed.
func (cm *ConnectionManager) GetPlayerCount() int {
	cm.Lock()
	defer cm.Unlock()
	return len(cm.Players)
}
