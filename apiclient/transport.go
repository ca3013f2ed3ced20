package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/padbridge/internal/auth"
)

// Config controls dialing, timeouts and authentication.
type Config struct {
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// Password enables VIIPER's encrypted session. Empty means plain TCP.
	Password string
}

func DefaultConfig() Config {
	return Config{
		DialTimeout:  3 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

// Transport speaks VIIPER's management framing. A request is
// `<path>[ <payload>]\x00`; the server answers with one JSON document and
// closes the connection, so responses are read to EOF.
type Transport struct {
	addr string
	cfg  Config

	keyOnce sync.Once
	key     []byte
	keyErr  error
}

func NewTransport(addr string, cfg *Config) *Transport {
	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	return &Transport{addr: addr, cfg: c}
}

func (t *Transport) Addr() string { return t.addr }

// derivedKey runs the password KDF once per transport.
func (t *Transport) derivedKey() ([]byte, error) {
	t.keyOnce.Do(func() {
		t.key, t.keyErr = auth.DeriveKey(t.cfg.Password)
	})
	return t.key, t.keyErr
}

// dial opens a connection and, with a password configured, completes the
// handshake and returns the encrypted connection.
func (t *Transport) dial(ctx context.Context) (net.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	d := &net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.addr)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.SetNoDelay(true); err != nil {
			slog.Warn("failed to set TCP_NODELAY", "error", err)
		}
	}
	if t.cfg.Password == "" {
		return conn, nil
	}

	key, err := t.derivedKey()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	sessionKey, err := auth.ClientHandshake(conn, key)
	if err != nil {
		conn.Close()
		return nil, err
	}
	_ = conn.SetDeadline(time.Time{})
	sc, err := auth.WrapConn(conn, sessionKey)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return sc, nil
}

// Do sends one request and returns the response without its trailing
// newline. Payloads: []byte and string are sent as-is, nil sends none, any
// other value is JSON encoded.
func (t *Transport) Do(ctx context.Context, path string, payload any, pathParams map[string]string) (string, error) {
	line := fillPath(path, pathParams)
	pb, err := toPayloadBytes(payload)
	if err != nil {
		return "", err
	}
	req := []byte(line)
	if len(pb) > 0 {
		req = append(append(req, ' '), pb...)
	}

	conn, err := t.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if t.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(t.cfg.WriteTimeout))
	}
	if _, err := conn.Write(append(req, '\x00')); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	if t.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(t.cfg.ReadTimeout))
	}
	resp, err := io.ReadAll(conn)
	if err != nil && len(resp) == 0 {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.TrimSuffix(string(resp), "\n"), nil
}

func fillPath(pattern string, params map[string]string) string {
	out := pattern
	for k, v := range params {
		out = strings.ReplaceAll(out, "{"+k+"}", url.PathEscape(v))
	}
	return strings.ToLower(out)
}

func toPayloadBytes(v any) ([]byte, error) {
	switch p := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return b, nil
}
