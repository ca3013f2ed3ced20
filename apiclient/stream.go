package apiclient

import (
	"context"
	"encoding"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/Alia5/padbridge/apitypes"
)

var ErrStreamClosed = errors.New("stream closed")

// DeviceStream is the bidirectional channel of one virtual device: input
// reports go out, feedback (rumble, LEDs) comes back.
type DeviceStream struct {
	conn  net.Conn
	BusID uint32
	DevID string

	writeTimeout time.Duration

	mu     sync.Mutex
	closed bool
}

// OpenStream attaches to the stream of an existing device.
func (c *Client) OpenStream(ctx context.Context, busID uint32, devID string) (*DeviceStream, error) {
	conn, err := c.transport.dial(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintf(conn, "bus/%d/%s\x00", busID, devID); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write stream path: %w", err)
	}
	return &DeviceStream{
		conn:         conn,
		BusID:        busID,
		DevID:        devID,
		writeTimeout: c.transport.cfg.WriteTimeout,
	}, nil
}

// AddDeviceAndConnect adds a device and opens its stream. If the stream
// cannot be opened the device is returned so the caller can remove it.
func (c *Client) AddDeviceAndConnect(ctx context.Context, busID uint32, devType string, o *DeviceOptions) (*DeviceStream, *apitypes.Device, error) {
	dev, err := c.DeviceAdd(ctx, busID, devType, o)
	if err != nil {
		return nil, nil, err
	}
	stream, err := c.OpenStream(ctx, busID, dev.DevId)
	if err != nil {
		return nil, dev, err
	}
	return stream, dev, nil
}

func (s *DeviceStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *DeviceStream) Write(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrStreamClosed
	}
	if s.writeTimeout > 0 {
		_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return s.conn.Write(p)
}

// WriteBinary marshals v and sends it as one report.
func (s *DeviceStream) WriteBinary(v encoding.BinaryMarshaler) error {
	data, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	_, err = s.Write(data)
	return err
}

func (s *DeviceStream) Read(p []byte) (int, error) {
	if s.isClosed() {
		return 0, ErrStreamClosed
	}
	return s.conn.Read(p)
}

// ReadMessages reads fixed size messages in a goroutine until ctx is done,
// the stream closes or a read fails. The final error is sent on the error
// channel, then both channels close.
func (s *DeviceStream) ReadMessages(ctx context.Context, size int) (<-chan []byte, <-chan error) {
	msgs := make(chan []byte, 8)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		stop := context.AfterFunc(ctx, func() { _ = s.conn.SetReadDeadline(time.Now()) })
		defer stop()

		for {
			buf := make([]byte, size)
			if _, err := io.ReadFull(s.conn, buf); err != nil {
				switch {
				case ctx.Err() != nil:
					errs <- ctx.Err()
				case s.isClosed():
					errs <- ErrStreamClosed
				default:
					errs <- err
				}
				return
			}
			select {
			case msgs <- buf:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
	}()
	return msgs, errs
}

func (s *DeviceStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
