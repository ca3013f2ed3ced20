// Package apiclient is a client for the VIIPER management API and its
// per-device streams.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/Alia5/padbridge/apitypes"
)

type Client struct{ transport *Transport }

// New returns a client for the VIIPER server at addr (host:port).
// A nil cfg uses DefaultConfig.
func New(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransport(addr, cfg)}
}

// WithTransport wraps an existing transport.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

func (c *Client) Ping(ctx context.Context) (*apitypes.PingResponse, error) {
	raw, err := c.transport.Do(ctx, "ping", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.PingResponse](raw)
}

func (c *Client) BusList(ctx context.Context) (*apitypes.BusListResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/list", nil, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.BusListResponse](raw)
}

// BusCreate allocates a bus. A busID of 0 lets the server pick the number.
func (c *Client) BusCreate(ctx context.Context, busID uint32) (*apitypes.BusCreateResponse, error) {
	var payload any
	if busID != 0 {
		payload = strconv.FormatUint(uint64(busID), 10)
	}
	raw, err := c.transport.Do(ctx, "bus/create", payload, nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.BusCreateResponse](raw)
}

// BusRemove removes a bus and every device on it.
func (c *Client) BusRemove(ctx context.Context, busID uint32) (*apitypes.BusRemoveResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/remove", strconv.FormatUint(uint64(busID), 10), nil)
	if err != nil {
		return nil, err
	}
	return parse[apitypes.BusRemoveResponse](raw)
}

// DeviceOptions overrides the USB identity of a new device.
type DeviceOptions struct {
	IdVendor  *uint16
	IdProduct *uint16
}

// DeviceAdd plugs a device of devType (e.g. "dualshock4") into a bus.
func (c *Client) DeviceAdd(ctx context.Context, busID uint32, devType string, o *DeviceOptions) (*apitypes.Device, error) {
	req := apitypes.DeviceCreateRequest{Type: &devType}
	if o != nil {
		req.IdVendor, req.IdProduct = o.IdVendor, o.IdProduct
	}
	raw, err := c.transport.Do(ctx, "bus/{id}/add", req, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[apitypes.Device](raw)
}

// DeviceRemove unplugs device devID from a bus. Open streams to it are closed
// by the server.
func (c *Client) DeviceRemove(ctx context.Context, busID uint32, devID string) (*apitypes.DeviceRemoveResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/{id}/remove", devID, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[apitypes.DeviceRemoveResponse](raw)
}

func (c *Client) DevicesList(ctx context.Context, busID uint32) (*apitypes.DevicesListResponse, error) {
	raw, err := c.transport.Do(ctx, "bus/{id}/list", nil, busParams(busID))
	if err != nil {
		return nil, err
	}
	return parse[apitypes.DevicesListResponse](raw)
}

func busParams(busID uint32) map[string]string {
	return map[string]string{"id": strconv.FormatUint(uint64(busID), 10)}
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return nil, &problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
