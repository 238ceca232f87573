package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Tnze/go-mc/net/packet"
	"github.com/skyezerfox/bungeeguard/constants"
)

var (
	ErrLegacyPing   = errors.New("legacy server list ping")
	ErrNotHandshake = errors.New("first packet is not a handshake")
	ErrBadLength    = errors.New("bad packet length")
)

// Handshake is the first packet every client sends.
type Handshake struct {
	Protocol  packet.VarInt
	Address   packet.String
	Port      packet.UnsignedShort
	NextState packet.VarInt
}

// ReadPacket reads one uncompressed, unencrypted packet of at most limit bytes.
func ReadPacket(r *bufio.Reader, limit int) (packet.Packet, error) {
	var length packet.VarInt
	if err := length.Decode(r); err != nil {
		return packet.Packet{}, err
	}
	if length <= 0 || int(length) > limit {
		return packet.Packet{}, fmt.Errorf("%w: %d", ErrBadLength, length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return packet.Packet{}, err
	}

	body := bytes.NewReader(data)
	var id packet.VarInt
	if err := id.Decode(body); err != nil {
		return packet.Packet{}, err
	}
	return packet.Packet{ID: int32(id), Data: data[len(data)-body.Len():]}, nil
}

// ReadHandshake reads the handshake packet from r. Bytes after the packet stay
// buffered in r.
func ReadHandshake(r *bufio.Reader) (Handshake, error) {
	var h Handshake

	first, err := r.Peek(1)
	if err != nil {
		return h, err
	}
	if first[0] == 0xFE {
		return h, ErrLegacyPing
	}

	input, err := ReadPacket(r, constants.MaxHandshakePacket)
	if err != nil {
		return h, err
	}
	if input.ID != constants.HandshakeID {
		return h, fmt.Errorf("%w: id %#x", ErrNotHandshake, input.ID)
	}
	if err := input.Scan(&h.Protocol, &h.Address, &h.Port, &h.NextState); err != nil {
		return h, fmt.Errorf("%w: %v", ErrNotHandshake, err)
	}
	return h, nil
}

// Marshal packs the handshake for sending.
func (h Handshake) Marshal() packet.Packet {
	return packet.Marshal(constants.HandshakeID, h.Protocol, h.Address, h.Port, h.NextState)
}
