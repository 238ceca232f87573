package connection

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Tnze/go-mc/chat"
	"github.com/Tnze/go-mc/net"
	"github.com/Tnze/go-mc/net/packet"
	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/bungeeguard/constants"
	"github.com/skyezerfox/bungeeguard/protocol"
)

// Incoming represents the incoming connection from the proxy on behalf of
// one player.
type Incoming struct {
	Player *Player
	CM     *ConnectionManager

	Connection *net.Conn

	// reader buffers the client socket; anything read past the handshake is
	// still in here when relaying starts.
	reader *bufio.Reader
	addr   string
}

// CreateIncoming returns a new incoming connection.
func CreateIncoming(cm *ConnectionManager, conn *net.Conn) *Incoming {
	return &Incoming{
		CM:         cm,
		Connection: conn,
		reader:     bufio.NewReader(conn.Socket),
		addr:       conn.Socket.RemoteAddr().String(),
	}
}

// HandlePlayer reads the handshake and dispatches on the requested state.
func (c *Incoming) HandlePlayer() {
	defer c.handlePanic()
	defer c.Connection.Close()

	_ = c.Connection.Socket.SetReadDeadline(time.Now().Add(c.CM.Options.HandshakeTimeout))
	hs, err := protocol.ReadHandshake(c.reader)
	if err != nil {
		log.Debug().Err(err).Str("addr", c.addr).Msg("Failed to read handshake")
		return
	}
	_ = c.Connection.Socket.SetReadDeadline(time.Time{})

	log.Debug().Str("addr", c.addr).Int("version", int(hs.Protocol)).Int("state", int(hs.NextState)).Msg("Handshake received")

	switch int(hs.NextState) {
	case constants.Status:
		c.handleStatusState(hs)
	case constants.Login:
		c.handleLoginState(hs)
	default:
		log.Debug().Str("addr", c.addr).Int("state", int(hs.NextState)).Msg("Unknown next state")
	}
}

// SendDisconnect disconnects this player with the target reason.
func (c *Incoming) SendDisconnect(message string) {
	msg, err := json.Marshal(chat.Message{Text: message})
	if err != nil {
		log.Err(err).Msg("Failed to encode disconnect message")
		c.Connection.Close()
		return
	}
	if err := c.Connection.WritePacket(packet.Marshal(
		constants.LoginDisconnect,
		packet.Chat(msg),
	)); err != nil {
		log.Debug().Err(err).Str("addr", c.addr).Msg("Failed to send disconnect")
	}
	c.Connection.Close()
}

// relay copies bytes both ways until either side closes.
func (c *Incoming) relay(out *Outgoing) {
	var g sync.WaitGroup
	g.Add(2)
	go func() {
		defer g.Done()
		defer out.Close()
		_, _ = io.Copy(out.Connection.Socket, c.reader)
	}()
	go func() {
		defer g.Done()
		defer c.Connection.Close()
		_, _ = io.Copy(c.Connection.Socket, out.Connection.Socket)
	}()
	g.Wait()
}

func (c *Incoming) handlePanic() {
	if err := recover(); err != nil {
		log.Error().Str("addr", c.addr).Str("panic", fmt.Sprint(err)).Msg("Recovered from panic in connection")
		hub := sentry.CurrentHub().Clone()
		hub.ConfigureScope(func(scope *sentry.Scope) {
			scope.SetTag("addr", c.addr)
			if c.Player != nil {
				scope.SetTag("player", c.Player.UUID.String())
			}
		})
		hub.Recover(err)
		hub.Flush(5 * time.Second)
	}
}
