package connection

import (
	"github.com/Tnze/go-mc/net/packet"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/bungeeguard/protocol"
)

const backendDownMessage = "§cUnable to connect to the server."

func (c *Incoming) handleLoginState(hs protocol.Handshake) {
	d := c.CM.Gatekeeper.Handle(string(hs.Address))
	if !d.Accepted {
		log.Info().Str("addr", c.addr).Str("reason", d.Reason.String()).Msg("Rejected handshake")
		c.SendDisconnect(d.Message)
		return
	}

	c.Player = &Player{
		UUID:      d.Payload.PlayerID,
		Hostname:  d.Payload.Hostname,
		Address:   d.Payload.Address,
		ProxyAddr: c.addr,
	}
	hs.Address = packet.String(protocol.Encode(d.Payload))

	out, err := CreateOutgoing(c.CM.Options.Backend)
	if err != nil {
		log.Err(err).Str("backend", c.CM.Options.Backend).Msg("Failed to open backend connection")
		c.SendDisconnect(backendDownMessage)
		return
	}
	defer out.Close()

	if err := out.Connection.WritePacket(hs.Marshal()); err != nil {
		log.Err(err).Str("backend", c.CM.Options.Backend).Msg("Failed to forward handshake")
		c.SendDisconnect(backendDownMessage)
		return
	}

	c.CM.AddPlayer(c.Player)
	defer c.CM.RemovePlayer(c.Player)

	log.Info().Str("id", c.Player.UUID.String()).Str("addr", c.Player.Address).Msg("Login handshake accepted - relaying to backend")
	c.relay(out)
	log.Info().Str("id", c.Player.UUID.String()).Msg("Disconnected")
}
