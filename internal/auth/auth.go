// Package auth implements the client side of VIIPER's password handshake and
// the encrypted session that follows it. The server side exists for the test
// fakes that stand in for a VIIPER server.
package auth

import (
	"crypto/hmac"
	"crypto/pbkdf2"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Alia5/padbridge/apitypes"
)

const (
	HandshakeMagic = "eVI1\x00"
	NonceSize      = 32
	KeySize        = 32

	pbkdf2Iterations = 100000
	pbkdf2Salt       = "VIIPER-Key-v1"
	authContext      = "VIIPER-Auth-v1"
	sessionContext   = "VIIPER-Session-v1"
	handshakeOK      = "OK\x00"
)

var ErrEmptyPassword = errors.New("password cannot be empty")

// DeriveKey stretches a VIIPER password into the 32 byte shared key.
func DeriveKey(password string) ([]byte, error) {
	if password == "" {
		return nil, ErrEmptyPassword
	}
	return pbkdf2.Key(sha256.New, password, []byte(pbkdf2Salt), pbkdf2Iterations, KeySize)
}

// SessionKey mixes the shared key with both handshake nonces.
func SessionKey(key, serverNonce, clientNonce []byte) []byte {
	h := sha256.New()
	h.Write(key)
	h.Write(serverNonce)
	h.Write(clientNonce)
	h.Write([]byte(sessionContext))
	return h.Sum(nil)
}

func clientProof(key, clientNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(authContext))
	mac.Write(clientNonce)
	return mac.Sum(nil)
}

// ClientHandshake authenticates against a VIIPER server on rw and returns
// the session key. A rejected password surfaces as the server's
// apitypes.ApiError.
func ClientHandshake(rw io.ReadWriter, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errors.New("handshake: missing key")
	}
	clientNonce := make([]byte, NonceSize)
	if _, err := rand.Read(clientNonce); err != nil {
		return nil, fmt.Errorf("generate client nonce: %w", err)
	}

	msg := make([]byte, 0, len(HandshakeMagic)+NonceSize+sha256.Size)
	msg = append(msg, HandshakeMagic...)
	msg = append(msg, clientNonce...)
	msg = append(msg, clientProof(key, clientNonce)...)
	if _, err := rw.Write(msg); err != nil {
		return nil, fmt.Errorf("write handshake: %w", err)
	}

	prefix := make([]byte, len(handshakeOK))
	if _, err := io.ReadFull(rw, prefix); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apitypes.ErrUnauthorized("invalid password")
		}
		return nil, fmt.Errorf("read handshake response: %w", err)
	}
	if string(prefix) != handshakeOK {
		rest, _ := io.ReadAll(rw)
		line := strings.TrimSuffix(string(append(prefix, rest...)), "\n")
		var apiErr apitypes.ApiError
		if err := json.Unmarshal([]byte(line), &apiErr); err == nil && (apiErr.Status != 0 || apiErr.Title != "") {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("invalid handshake response: %q", line)
	}

	serverNonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rw, serverNonce); err != nil {
		return nil, fmt.Errorf("read server nonce: %w", err)
	}
	return SessionKey(key, serverNonce, clientNonce), nil
}

// ServerHandshake answers a client handshake whose magic has already been
// consumed from rw. On a bad proof it returns an unauthorized ApiError and
// writes nothing.
func ServerHandshake(rw io.ReadWriter, key []byte) ([]byte, error) {
	buf := make([]byte, NonceSize+sha256.Size)
	if _, err := io.ReadFull(rw, buf); err != nil {
		return nil, fmt.Errorf("read client handshake: %w", err)
	}
	clientNonce, proof := buf[:NonceSize], buf[NonceSize:]
	if !hmac.Equal(proof, clientProof(key, clientNonce)) {
		return nil, apitypes.ErrUnauthorized("invalid password")
	}

	serverNonce := make([]byte, NonceSize)
	if _, err := rand.Read(serverNonce); err != nil {
		return nil, fmt.Errorf("generate server nonce: %w", err)
	}
	if _, err := rw.Write(append([]byte(handshakeOK), serverNonce...)); err != nil {
		return nil, fmt.Errorf("write handshake response: %w", err)
	}
	return SessionKey(key, serverNonce, clientNonce), nil
}
