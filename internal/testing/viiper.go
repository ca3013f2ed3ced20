// Package testing provides an in-process stand-in for a VIIPER server.
package testing

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Alia5/padbridge/apitypes"
	"github.com/Alia5/padbridge/internal/auth"
)

// reportSizes maps device types to the size of one client to device report.
var reportSizes = map[string]int{
	"dualshock4": 31,
}

// Stream is the server end of one device stream.
type Stream struct {
	Reports chan []byte

	mu   sync.Mutex
	conn net.Conn
}

// Send writes feedback to the client.
func (s *Stream) Send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.conn.Write(data)
	return err
}

func (s *Stream) Close() error { return s.conn.Close() }

// Server answers the VIIPER management protocol from memory.
type Server struct {
	t        *testing.T
	ln       net.Listener
	password string
	key      []byte

	mu       sync.Mutex
	buses    map[uint32][]apitypes.Device
	nextDev  map[uint32]int
	failures map[string]apitypes.ApiError
	requests []string
	streams  chan *Stream
}

// NewServer starts a fake server on a loopback port. It is stopped when the
// test ends. A non-empty password requires the encrypted handshake.
func NewServer(t *testing.T, password string) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{
		t:        t,
		ln:       ln,
		password: password,
		buses:    map[uint32][]apitypes.Device{},
		nextDev:  map[uint32]int{},
		failures: map[string]apitypes.ApiError{},
		streams:  make(chan *Stream, 8),
	}
	if password != "" {
		if s.key, err = auth.DeriveKey(password); err != nil {
			t.Fatalf("derive key: %v", err)
		}
	}
	t.Cleanup(func() { _ = ln.Close() })
	go s.serve()
	return s
}

func (s *Server) Addr() string { return s.ln.Addr().String() }

// Fail makes every request to path answer with e.
func (s *Server) Fail(path string, e apitypes.ApiError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = e
}

// AddBus creates a bus as if another client had.
func (s *Server) AddBus(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses[id] = nil
}

func (s *Server) Buses() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint32, 0, len(s.buses))
	for id := range s.buses {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

func (s *Server) Devices(bus uint32) []apitypes.Device {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.buses[bus])
}

// Requests lists the request lines received so far, payload included.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Streams yields every device stream as it is opened.
func (s *Server) Streams() <-chan *Stream { return s.streams }

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(raw net.Conn) {
	conn, err := s.secure(raw)
	if err != nil {
		writeJSON(raw, err)
		raw.Close()
		return
	}
	r := bufio.NewReader(conn)
	line, err := r.ReadString('\x00')
	if err != nil {
		conn.Close()
		return
	}
	line = strings.TrimSuffix(line, "\x00")
	path, payload, _ := strings.Cut(line, " ")

	s.mu.Lock()
	s.requests = append(s.requests, line)
	s.mu.Unlock()

	if st, ok := s.openStream(path, conn); ok {
		s.pumpReports(st, r, path)
		return
	}
	defer conn.Close()
	resp, apiErr := s.route(path, payload)
	if apiErr != nil {
		writeJSON(conn, *apiErr)
		return
	}
	writeJSON(conn, resp)
}

// secure performs the handshake when a password is configured.
func (s *Server) secure(conn net.Conn) (net.Conn, error) {
	if s.password == "" {
		return conn, nil
	}
	magic := make([]byte, len(auth.HandshakeMagic))
	if _, err := io.ReadFull(conn, magic); err != nil || string(magic) != auth.HandshakeMagic {
		return nil, apitypes.ErrUnauthorized("authentication required")
	}
	sessionKey, err := auth.ServerHandshake(conn, s.key)
	if err != nil {
		return nil, err
	}
	return auth.WrapConn(conn, sessionKey)
}

func (s *Server) route(path, payload string) (any, *apitypes.ApiError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.failures[path]; ok {
		return nil, &e
	}

	parts := strings.Split(path, "/")
	switch {
	case path == "ping":
		return apitypes.PingResponse{Server: "VIIPER", Version: "test"}, nil
	case path == "bus/list":
		buses := make([]uint32, 0, len(s.buses))
		for id := range s.buses {
			buses = append(buses, id)
		}
		slices.Sort(buses)
		return apitypes.BusListResponse{Buses: buses}, nil
	case path == "bus/create":
		id := uint32(1)
		if payload != "" {
			n, err := strconv.ParseUint(payload, 10, 32)
			if err != nil || n == 0 {
				return nil, ptr(apitypes.ErrBadRequest("invalid busId"))
			}
			id = uint32(n)
			if _, ok := s.buses[id]; ok {
				return nil, ptr(apitypes.ErrConflict(fmt.Sprintf("bus %d already exists", id)))
			}
		} else {
			for s.hasBus(id) {
				id++
			}
		}
		s.buses[id] = nil
		return apitypes.BusCreateResponse{BusID: id}, nil
	case path == "bus/remove":
		id, apiErr := s.bus(payload)
		if apiErr != nil {
			return nil, apiErr
		}
		delete(s.buses, id)
		return apitypes.BusRemoveResponse{BusID: id}, nil
	case len(parts) == 3 && parts[0] == "bus":
		id, apiErr := s.bus(parts[1])
		if apiErr != nil {
			return nil, apiErr
		}
		switch parts[2] {
		case "add":
			var req apitypes.DeviceCreateRequest
			if err := json.Unmarshal([]byte(payload), &req); err != nil || req.Type == nil {
				return nil, ptr(apitypes.ErrBadRequest("invalid device request"))
			}
			if _, ok := reportSizes[*req.Type]; !ok {
				return nil, ptr(apitypes.ErrBadRequest(fmt.Sprintf("unknown device type %q", *req.Type)))
			}
			s.nextDev[id]++
			dev := apitypes.Device{BusID: id, DevId: strconv.Itoa(s.nextDev[id]), Vid: "0x054c", Pid: "0x05c4", Type: *req.Type}
			s.buses[id] = append(s.buses[id], dev)
			return dev, nil
		case "remove":
			devs := s.buses[id]
			i := slices.IndexFunc(devs, func(d apitypes.Device) bool { return d.DevId == payload })
			if i < 0 {
				return nil, ptr(apitypes.ErrNotFound(fmt.Sprintf("device %s not found", payload)))
			}
			s.buses[id] = slices.Delete(devs, i, i+1)
			return apitypes.DeviceRemoveResponse{BusID: id, DevId: payload}, nil
		case "list":
			return apitypes.DevicesListResponse{Devices: slices.Clone(s.buses[id])}, nil
		}
	}
	return nil, ptr(apitypes.ErrNotFound("unknown path " + path))
}

func (s *Server) hasBus(id uint32) bool {
	_, ok := s.buses[id]
	return ok
}

func (s *Server) bus(idStr string) (uint32, *apitypes.ApiError) {
	n, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, ptr(apitypes.ErrBadRequest("invalid busId"))
	}
	if !s.hasBus(uint32(n)) {
		return 0, ptr(apitypes.ErrNotFound(fmt.Sprintf("bus %d not found", n)))
	}
	return uint32(n), nil
}

func (s *Server) openStream(path string, conn net.Conn) (*Stream, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "bus" {
		return nil, false
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return nil, false
	}
	return &Stream{Reports: make(chan []byte, 64), conn: conn}, true
}

func (s *Server) pumpReports(st *Stream, r *bufio.Reader, path string) {
	defer close(st.Reports)
	size := s.reportSize(path)
	if size == 0 {
		writeJSON(st.conn, apitypes.ErrNotFound("device not found"))
		st.conn.Close()
		return
	}
	s.streams <- st
	for {
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return
		}
		st.Reports <- buf
	}
}

func (s *Server) reportSize(path string) int {
	parts := strings.Split(path, "/")
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.buses[uint32(id)] {
		if d.DevId == parts[2] {
			return reportSizes[d.Type]
		}
	}
	return 0
}

func writeJSON(w io.Writer, v any) {
	var apiErr apitypes.ApiError
	if err, ok := v.(error); ok && !errors.As(err, &apiErr) {
		v = apitypes.ApiError{Status: 500, Title: "Internal Server Error", Detail: err.Error()}
	}
	b, _ := json.Marshal(v)
	_, _ = w.Write(append(b, '\n'))
}

func ptr[T any](v T) *T { return &v }
