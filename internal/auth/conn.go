package auth

import (
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// maxPacket bounds a single sealed packet on the wire.
const maxPacket = 2 << 20

// Conn seals every Write into one length-prefixed chacha20poly1305 packet:
// u32 big endian length, 12 byte nonce, ciphertext. Nonces are a per
// direction counter.
type Conn struct {
	net.Conn
	aead cipher.AEAD

	wmu  sync.Mutex
	sent uint64

	rmu     sync.Mutex
	pending []byte
}

func WrapConn(conn net.Conn, sessionKey []byte) (*Conn, error) {
	aead, err := chacha20poly1305.New(sessionKey)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn, aead: aead}, nil
}

func (c *Conn) Write(p []byte) (int, error) {
	c.wmu.Lock()
	defer c.wmu.Unlock()

	nonce := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint64(nonce[4:], c.sent)
	c.sent++

	pkt := make([]byte, 4, 4+len(nonce)+len(p)+c.aead.Overhead())
	pkt = append(pkt, nonce...)
	pkt = c.aead.Seal(pkt, nonce, p, nil)
	binary.BigEndian.PutUint32(pkt[:4], uint32(len(pkt)-4))

	if _, err := c.Conn.Write(pkt); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (c *Conn) Read(p []byte) (int, error) {
	c.rmu.Lock()
	defer c.rmu.Unlock()

	if len(c.pending) == 0 {
		if err := c.readPacket(); err != nil {
			return 0, err
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *Conn) readPacket() error {
	var hdr [4]byte
	if _, err := io.ReadFull(c.Conn, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n < chacha20poly1305.NonceSize || n > maxPacket {
		return fmt.Errorf("sealed packet of %d bytes", n)
	}
	pkt := make([]byte, n)
	if _, err := io.ReadFull(c.Conn, pkt); err != nil {
		return err
	}
	pt, err := c.aead.Open(nil, pkt[:chacha20poly1305.NonceSize], pkt[chacha20poly1305.NonceSize:], nil)
	if err != nil {
		return err
	}
	c.pending = pt
	return nil
}
