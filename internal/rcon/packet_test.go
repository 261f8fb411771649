package rcon_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math"
	"testing"

	"github.com/KizzyCode/MinecraftWebhook/internal/rcon"
)

func decodeWhole(t *testing.T, b []byte) *rcon.Packet {
	t.Helper()

	var dec rcon.Decoder
	dec.Feed(b)
	p, err := dec.Next()
	if err != nil {
		t.Fatalf("Decoder.Next() failed unexpectedly: %s", err)
	}
	if p == nil {
		t.Fatalf("Decoder.Next() wants more bytes after a complete frame of %d bytes", len(b))
	}
	if dec.Buffered() != 0 {
		t.Fatalf("Decoder left %d bytes unconsumed after a single frame", dec.Buffered())
	}
	return p
}

func TestPacketRoundTrip(t *testing.T) {
	ps := []rcon.Packet{
		{},
		{ID: 1, Type: rcon.PacketTypeAuth, Body: []byte("password")},
		{ID: 2, Type: rcon.PacketTypeAuthResponse},
		{ID: -1, Type: rcon.PacketTypeAuthResponse},
		{ID: 3, Type: rcon.PacketTypeExecCommand, Body: []byte("seed")},
		{ID: 4, Type: rcon.PacketTypeResponseValue, Body: []byte("Seed: [1868588182]")},
		{ID: math.MaxInt32, Type: math.MaxInt32, Body: bytes.Repeat([]byte{'x'}, rcon.MaxPacketSize-10)},
	}

	for _, p := range ps {
		b, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("Packet[%#v].MarshalBinary() failed unexpectedly: %s", p, err)
		}

		// MarshalBinary must be a pure function.
		b2, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("Packet[%#v].MarshalBinary() failed unexpectedly: %s", p, err)
		}
		if !bytes.Equal(b, b2) {
			t.Fatalf("Packet[%#v].MarshalBinary() got two different results: %0x, %0x", p, b, b2)
		}

		p2 := decodeWhole(t, b)
		if p2.ID != p.ID || p2.Type != p.Type || !bytes.Equal(p2.Body, p.Body) {
			t.Fatalf("decode(encode(%#v)) is not the identity, got: %#v", p, p2)
		}
	}
}

func TestPacketKnownVector(t *testing.T) {
	p := rcon.Packet{ID: 42, Type: rcon.PacketTypeExecCommand, Body: []byte("info")}

	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	if err != nil {
		t.Fatalf("Packet.WriteTo() failed unexpectedly: %s", err)
	}

	want := "0e0000002a00000002000000696e666f0000"
	if got := hex.EncodeToString(buf.Bytes()); got != want || n != int64(len(buf.Bytes())) {
		t.Fatalf("Packet.WriteTo() wrote %d bytes %q, want %q", n, got, want)
	}
}

func TestMarshalRejectsInvalidBodies(t *testing.T) {
	p := rcon.Packet{Body: bytes.Repeat([]byte{'x'}, rcon.MaxPacketSize)}
	if _, err := p.MarshalBinary(); !errors.Is(err, rcon.ErrOversizedPacket) {
		t.Fatalf("oversized body got error %v, want ErrOversizedPacket", err)
	}

	p = rcon.Packet{Body: []byte("say hi\x00oops")}
	if _, err := p.MarshalBinary(); !errors.Is(err, rcon.ErrMalformedPacket) {
		t.Fatalf("NUL in body got error %v, want ErrMalformedPacket", err)
	}
}

func TestStreamingDecode(t *testing.T) {
	ps := []rcon.Packet{
		{ID: 7, Type: rcon.PacketTypeResponseValue, Body: []byte("Said: Hello World")},
		{ID: 7, Type: rcon.PacketTypeResponseValue},
		{ID: 8, Type: rcon.PacketTypeResponseValue, Body: bytes.Repeat([]byte{'z'}, 1000)},
	}

	var wire []byte
	for _, p := range ps {
		b, err := p.MarshalBinary()
		if err != nil {
			t.Fatalf("Packet[%#v].MarshalBinary() failed unexpectedly: %s", p, err)
		}
		wire = append(wire, b...)
	}

	// Feeding the stream in chunks of any size must decode the same packets
	// as feeding it whole.
	for _, chunk := range []int{1, 2, 3, 5, 13, 64, len(wire)} {
		var dec rcon.Decoder
		var got []*rcon.Packet

		for off := 0; off < len(wire); off += chunk {
			end := off + chunk
			if end > len(wire) {
				end = len(wire)
			}
			dec.Feed(wire[off:end])

			for {
				p, err := dec.Next()
				if err != nil {
					t.Fatalf("chunk %d: Decoder.Next() failed unexpectedly: %s", chunk, err)
				}
				if p == nil {
					break
				}
				got = append(got, p)
			}
		}

		if len(got) != len(ps) {
			t.Fatalf("chunk %d: decoded %d packets, want %d", chunk, len(got), len(ps))
		}
		for i, p := range ps {
			if got[i].ID != p.ID || got[i].Type != p.Type || !bytes.Equal(got[i].Body, p.Body) {
				t.Fatalf("chunk %d: packet %d mismatch: got %#v, want %#v", chunk, i, got[i], p)
			}
		}
	}
}

func TestDecodeMalformedFrames(t *testing.T) {
	cases := []struct {
		hex  string
		want error
	}{
		{"d6ffffff", rcon.ErrMalformedPacket},                             // negative size
		{"09000000", rcon.ErrMalformedPacket},                             // size below protocol minimum
		{"01100000", rcon.ErrOversizedPacket},                             // size above protocol maximum
		{"0a0000001111111122222222333333330000", rcon.ErrMalformedPacket}, // size smaller than frame
		{"0a00000011111111222222223333", rcon.ErrMalformedPacket},         // missing NUL termination
	}

	for _, c := range cases {
		b, err := hex.DecodeString(c.hex)
		if err != nil {
			t.Fatalf("invalid hex string in test table: %s", c.hex)
		}

		var dec rcon.Decoder
		dec.Feed(b)
		_, err = dec.Next()
		if !errors.Is(err, c.want) {
			t.Fatalf("Decoder.Next(%s) got error %v, want %v", c.hex, err, c.want)
		}
	}
}

func TestDecodeWaitsForCompleteFrame(t *testing.T) {
	b, err := hex.DecodeString("0a00000011") // valid size, truncated frame
	if err != nil {
		t.Fatal(err)
	}

	var dec rcon.Decoder
	dec.Feed(b)
	p, err := dec.Next()
	if err != nil || p != nil {
		t.Fatalf("Decoder.Next() on a truncated frame got (%v, %v), want (nil, nil)", p, err)
	}
}
