package rcon

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// wrapperSize is the number of non-body bytes covered by a packet's size
// field: four bytes of id, four bytes of type and the two NUL terminators.
// The size field itself is not included.
const wrapperSize = 4 + 4 + 2

// MaxPacketSize is the largest value the size field of a frame may carry,
// a conventional limit of the wire format.
const MaxPacketSize = 4096

// Packet type values. Note that PacketTypeAuthResponse and
// PacketTypeExecCommand share the value 2: the type field alone never
// disambiguates them, the protocol phase and the request id do.
const (
	// PacketTypeAuth is a client login request carrying the password.
	PacketTypeAuth int32 = 3

	// PacketTypeAuthResponse is the server's answer to a login request. An
	// id of -1 signals a rejected password.
	PacketTypeAuthResponse int32 = 2

	// PacketTypeExecCommand is a client request carrying a command to run.
	PacketTypeExecCommand int32 = 2

	// PacketTypeResponseValue is a server packet carrying command output.
	PacketTypeResponseValue int32 = 0
)

// Packet is one RCON frame. Packets are constructed once and never mutated
// after decode.
type Packet struct {
	ID   int32
	Type int32
	Body []byte
}

// MarshalBinary encodes the packet into its wire representation:
//
//	[ size:int32 | id:int32 | type:int32 | body | 0x00 | 0x00 ]
//
// with all integers little-endian. The body must not contain a NUL byte
// since the protocol uses NUL as a field terminator.
func (p Packet) MarshalBinary() ([]byte, error) {
	if bytes.IndexByte(p.Body, 0) >= 0 {
		return nil, fmt.Errorf("%w: body contains NUL byte", ErrMalformedPacket)
	}

	size := len(p.Body) + wrapperSize
	if size > MaxPacketSize {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrOversizedPacket, len(p.Body))
	}

	b := make([]byte, 0, 4+size)
	b = binary.LittleEndian.AppendUint32(b, uint32(size))
	b = binary.LittleEndian.AppendUint32(b, uint32(p.ID))
	b = binary.LittleEndian.AppendUint32(b, uint32(p.Type))
	b = append(b, p.Body...)
	b = append(b, 0, 0)
	return b, nil
}

// WriteTo writes the wire representation of the packet to w.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	bs, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bs)
	return int64(n), err
}

// Decoder reassembles packets from a TCP byte stream. TCP delivers bytes,
// not message boundaries, so a frame may arrive fragmented across any
// number of reads; callers feed raw reads in with [Decoder.Feed] and pull
// complete packets out with [Decoder.Next].
type Decoder struct {
	buf []byte
}

// Feed appends raw bytes read from the connection to the decode buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Buffered reports the number of unconsumed bytes in the decode buffer.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Next attempts to decode one packet from the buffered bytes. It returns
// (nil, nil) when the buffer does not yet hold a complete frame, in which
// case the caller should feed more bytes and try again. A decoded packet
// owns its body; the consumed bytes are dropped from the buffer.
func (d *Decoder) Next() (*Packet, error) {
	if len(d.buf) < 4 {
		return nil, nil
	}

	size := int32(binary.LittleEndian.Uint32(d.buf))
	switch {
	case size < wrapperSize:
		return nil, fmt.Errorf("%w: declared size %d below minimum", ErrMalformedPacket, size)
	case size > MaxPacketSize:
		return nil, fmt.Errorf("%w: declared size %d", ErrOversizedPacket, size)
	}

	total := 4 + int(size)
	if len(d.buf) < total {
		return nil, nil
	}

	frame := d.buf[:total]
	if frame[total-2] != 0 || frame[total-1] != 0 {
		return nil, fmt.Errorf("%w: missing NUL terminators", ErrMalformedPacket)
	}

	p := &Packet{
		ID:   int32(binary.LittleEndian.Uint32(frame[4:])),
		Type: int32(binary.LittleEndian.Uint32(frame[8:])),
		Body: append([]byte(nil), frame[12:total-2]...),
	}
	d.buf = d.buf[total:]
	return p, nil
}
