package apiclient_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/Alia5/padbridge/apiclient"
	"github.com/Alia5/padbridge/apitypes"
	htesting "github.com/Alia5/padbridge/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient(t *testing.T) {
	srv := htesting.NewServer(t, "")
	c := apiclient.New(srv.Addr(), nil)
	ctx := t.Context()

	ping, err := c.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "VIIPER", ping.Server)

	created, err := c.BusCreate(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), created.BusID)

	created, err = c.BusCreate(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), created.BusID)

	buses, err := c.BusList(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 7}, buses.Buses)

	dev, err := c.DeviceAdd(ctx, 7, "dualshock4", nil)
	require.NoError(t, err)
	assert.Equal(t, apitypes.Device{BusID: 7, DevId: "1", Vid: "0x054c", Pid: "0x05c4", Type: "dualshock4"}, *dev)

	list, err := c.DevicesList(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list.Devices, 1)

	removed, err := c.DeviceRemove(ctx, 7, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", removed.DevId)

	rb, err := c.BusRemove(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), rb.BusID)
	assert.Equal(t, []uint32{1}, srv.Buses())

	assert.Contains(t, srv.Requests(), "bus/create 7")
	assert.Contains(t, srv.Requests(), `bus/7/add {"type":"dualshock4"}`)
}

func TestClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(srv *htesting.Server)
		call    func(ctx context.Context, c *apiclient.Client) error
		wantErr string
	}{
		{
			name:  "bus conflict",
			setup: func(srv *htesting.Server) { srv.AddBus(3) },
			call: func(ctx context.Context, c *apiclient.Client) error {
				_, err := c.BusCreate(ctx, 3)
				return err
			},
			wantErr: "409 Conflict: bus 3 already exists",
		},
		{
			name: "unknown bus",
			call: func(ctx context.Context, c *apiclient.Client) error {
				_, err := c.DeviceAdd(ctx, 9, "dualshock4", nil)
				return err
			},
			wantErr: "404 Not Found: bus 9 not found",
		},
		{
			name: "injected failure",
			setup: func(srv *htesting.Server) {
				srv.Fail("ping", apitypes.ApiError{Status: 500, Title: "Boom", Detail: "down"})
			},
			call: func(ctx context.Context, c *apiclient.Client) error {
				_, err := c.Ping(ctx)
				return err
			},
			wantErr: "500 Boom: down",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := htesting.NewServer(t, "")
			if tt.setup != nil {
				tt.setup(srv)
			}
			err := tt.call(t.Context(), apiclient.New(srv.Addr(), nil))
			require.Error(t, err)
			var apiErr *apitypes.ApiError
			assert.ErrorAs(t, err, &apiErr)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestClientRejectsUnknownFields(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_, _ = conn.Read(make([]byte, 64))
		_, _ = conn.Write([]byte(`{"server":"x","version":"1","extra":true}` + "\n"))
	}()

	_, err = apiclient.New(ln.Addr().String(), nil).Ping(t.Context())
	assert.ErrorContains(t, err, "decode")
}

func TestClientCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := apiclient.New("127.0.0.1:1", nil).Ping(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientEmptyResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		_, _ = conn.Read(make([]byte, 64))
		conn.Close()
	}()

	cfg := apiclient.DefaultConfig()
	cfg.ReadTimeout = time.Second
	_, err = apiclient.New(ln.Addr().String(), &cfg).BusList(t.Context())
	assert.EqualError(t, err, "empty response")
}

func TestEncryptedClient(t *testing.T) {
	srv := htesting.NewServer(t, "s3cret")

	ping, err := apiclient.New(srv.Addr(), &apiclient.Config{Password: "s3cret"}).Ping(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "test", ping.Version)

	_, err = apiclient.New(srv.Addr(), &apiclient.Config{Password: "wrong"}).Ping(t.Context())
	assert.EqualError(t, err, "401 Unauthorized: invalid password")

	_, err = apiclient.New(srv.Addr(), nil).Ping(t.Context())
	assert.Error(t, err, "server requires the handshake")
}
