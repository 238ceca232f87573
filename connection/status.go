package connection

import (
	"encoding/json"
	"time"

	"github.com/Tnze/go-mc/net/packet"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/bungeeguard/constants"
	"github.com/skyezerfox/bungeeguard/models"
	"github.com/skyezerfox/bungeeguard/protocol"
)

// statusPacketLimit bounds status request and ping packets.
const statusPacketLimit = 64

// handleStatusState relays a server list ping to the backend untouched. If
// the backend can't be reached the ping is answered here.
func (c *Incoming) handleStatusState(hs protocol.Handshake) {
	out, err := CreateOutgoing(c.CM.Options.Backend)
	if err == nil {
		defer out.Close()
		if err = out.Connection.WritePacket(hs.Marshal()); err == nil {
			c.relay(out)
			return
		}
	}
	log.Debug().Err(err).Str("backend", c.CM.Options.Backend).Msg("Backend unreachable, answering status ourselves")

	for {
		_ = c.Connection.Socket.SetReadDeadline(time.Now().Add(c.CM.Options.HandshakeTimeout))
		input, err := protocol.ReadPacket(c.reader, statusPacketLimit)
		if err != nil {
			return
		}
		switch input.ID {
		case constants.StatusRequestID:
			c.handleStatus(hs)
		case constants.StatusPingID:
			c.handlePing(&input)
			return
		default:
			return
		}
	}
}

func (c *Incoming) handleStatus(hs protocol.Handshake) {
	version := int(hs.Protocol)
	if version <= 0 {
		version = constants.MCProtocol
	}
	out, err := json.Marshal(models.NewServerStatus(
		constants.MCVersion,
		version,
		c.CM.Options.MaxPlayers,
		c.CM.GetPlayerCount(),
		c.CM.Options.MOTD,
	))
	if err != nil {
		return
	}

	_ = c.Connection.WritePacket(packet.Marshal(
		constants.StatusResponseID,
		packet.String(string(out)),
	))
}

func (c *Incoming) handlePing(input *packet.Packet) {
	var payload packet.Long
	if err := input.Scan(&payload); err != nil {
		return
	}

	_ = c.Connection.WritePacket(packet.Marshal(
		constants.StatusPongID,
		payload,
	))
}
