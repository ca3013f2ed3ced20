// Package bluez reads controller frames from a GATT characteristic through
// the BlueZ D-Bus API. The device must already be paired; this package
// connects to a known address and never scans.
package bluez

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	bluezBus          = "org.bluez"
	bluezDevice1      = "org.bluez.Device1"
	bluezGattChar     = "org.bluez.GattCharacteristic1"
	dbusObjectManager = "org.freedesktop.DBus.ObjectManager"
	dbusProperties    = "org.freedesktop.DBus.Properties"
)

// ErrDisconnected is returned by Next once BlueZ reports the link is gone.
var ErrDisconnected = errors.New("bluetooth device disconnected")

// Mode selects how frames are obtained.
type Mode string

const (
	// ModePoll issues a ReadValue for every frame.
	ModePoll Mode = "poll"
	// ModeNotify subscribes to characteristic notifications.
	ModeNotify Mode = "notify"
)

type Config struct {
	Adapter        string
	Address        string
	Characteristic string
	Mode           Mode
	// PollInterval is the minimum gap between two reads in poll mode.
	PollInterval   time.Duration
	ConnectTimeout time.Duration
	ResolveTimeout time.Duration
	Logger         *slog.Logger
}

type objectMap = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Source is a connected controller. It implements bridge.Source.
type Source struct {
	cfg        Config
	conn       *dbus.Conn
	logger     *slog.Logger
	devicePath dbus.ObjectPath
	charPath   dbus.ObjectPath

	signals  chan *dbus.Signal
	lastRead time.Time
}

// Dial connects to the device, waits for service discovery and locates the
// frame characteristic.
func Dial(ctx context.Context, cfg Config) (*Source, error) {
	if err := ValidateAddress(cfg.Address); err != nil {
		return nil, err
	}
	if cfg.Adapter == "" {
		cfg.Adapter = "hci0"
	}
	if cfg.Mode == "" {
		cfg.Mode = ModePoll
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 20 * time.Second
	}
	if cfg.ResolveTimeout <= 0 {
		cfg.ResolveTimeout = 15 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	s := &Source{
		cfg:        cfg,
		conn:       conn,
		logger:     logger.With("address", strings.ToUpper(cfg.Address)),
		devicePath: DevicePath(cfg.Adapter, cfg.Address),
	}
	if err := s.setup(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Source) setup(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return err
	}
	if err := s.waitServicesResolved(ctx); err != nil {
		return err
	}

	var objects objectMap
	call := s.conn.Object(bluezBus, "/").CallWithContext(ctx, dbusObjectManager+".GetManagedObjects", 0)
	if call.Err != nil {
		return fmt.Errorf("GetManagedObjects: %w", call.Err)
	}
	if err := call.Store(&objects); err != nil {
		return fmt.Errorf("parse managed objects: %w", err)
	}
	charPath, err := FindCharacteristic(objects, s.devicePath, s.cfg.Characteristic)
	if err != nil {
		return err
	}
	s.charPath = charPath
	s.logger.Debug("found characteristic", "path", charPath)

	s.signals = make(chan *dbus.Signal, 64)
	s.conn.Signal(s.signals)
	if err := s.conn.AddMatchSignal(
		dbus.WithMatchObjectPath(s.devicePath),
		dbus.WithMatchInterface(dbusProperties),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("watch device: %w", err)
	}

	if s.cfg.Mode == ModeNotify {
		if err := s.conn.AddMatchSignal(
			dbus.WithMatchObjectPath(s.charPath),
			dbus.WithMatchInterface(dbusProperties),
			dbus.WithMatchMember("PropertiesChanged"),
		); err != nil {
			return fmt.Errorf("watch characteristic: %w", err)
		}
		if call := s.conn.Object(bluezBus, s.charPath).CallWithContext(ctx, bluezGattChar+".StartNotify", 0); call.Err != nil {
			return fmt.Errorf("StartNotify: %w", call.Err)
		}
	}
	s.logger.Info("controller connected", "mode", s.cfg.Mode)
	return nil
}

func (s *Source) connect(ctx context.Context) error {
	if connected, err := property[bool](s.conn, s.devicePath, bluezDevice1, "Connected"); err == nil && connected {
		return nil
	}
	s.logger.Info("connecting")
	cctx, cancel := context.WithTimeout(ctx, s.cfg.ConnectTimeout)
	defer cancel()
	if call := s.conn.Object(bluezBus, s.devicePath).CallWithContext(cctx, bluezDevice1+".Connect", 0); call.Err != nil {
		return fmt.Errorf("connect %s: %w", s.cfg.Address, call.Err)
	}
	return nil
}

func (s *Source) waitServicesResolved(ctx context.Context) error {
	deadline := time.NewTimer(s.cfg.ResolveTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		if resolved, err := property[bool](s.conn, s.devicePath, bluezDevice1, "ServicesResolved"); err == nil && resolved {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("service discovery timed out after %s", s.cfg.ResolveTimeout)
		case <-ticker.C:
		}
	}
}

// Next returns the next frame from the controller.
func (s *Source) Next(ctx context.Context) ([]byte, error) {
	if s.cfg.Mode == ModeNotify {
		return s.nextNotification(ctx)
	}
	return s.poll(ctx)
}

func (s *Source) poll(ctx context.Context) ([]byte, error) {
	if wait := s.cfg.PollInterval - time.Since(s.lastRead); s.cfg.PollInterval > 0 && wait > 0 {
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
	if err := s.drainDeviceSignals(); err != nil {
		return nil, err
	}
	s.lastRead = time.Now()

	var data []byte
	call := s.conn.Object(bluezBus, s.charPath).CallWithContext(ctx, bluezGattChar+".ReadValue", 0, map[string]dbus.Variant{})
	if call.Err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ReadValue: %w", call.Err)
	}
	if err := call.Store(&data); err != nil {
		return nil, fmt.Errorf("decode ReadValue: %w", err)
	}
	return data, nil
}

// drainDeviceSignals reports a disconnect seen since the last poll.
func (s *Source) drainDeviceSignals() error {
	for {
		select {
		case sig, ok := <-s.signals:
			if !ok {
				return ErrDisconnected
			}
			if Disconnected(sig, s.devicePath) {
				return ErrDisconnected
			}
		default:
			return nil
		}
	}
}

func (s *Source) nextNotification(ctx context.Context) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sig, ok := <-s.signals:
			if !ok {
				return nil, ErrDisconnected
			}
			if Disconnected(sig, s.devicePath) {
				return nil, ErrDisconnected
			}
			if v, ok := ChangedValue(sig, s.charPath); ok {
				return v, nil
			}
		}
	}
}

// Close stops notifications, disconnects the device and closes the bus
// connection.
func (s *Source) Close() error {
	if s.conn == nil {
		return nil
	}
	if s.charPath != "" && s.cfg.Mode == ModeNotify {
		s.conn.Object(bluezBus, s.charPath).Call(bluezGattChar+".StopNotify", 0)
	}
	if s.signals != nil {
		s.conn.RemoveSignal(s.signals)
	}
	call := s.conn.Object(bluezBus, s.devicePath).Call(bluezDevice1+".Disconnect", 0)
	err := s.conn.Close()
	s.conn = nil
	if call.Err != nil {
		s.logger.Debug("disconnect failed", "error", call.Err)
	}
	return err
}

func property[T any](conn *dbus.Conn, path dbus.ObjectPath, iface, name string) (T, error) {
	var zero T
	v, err := conn.Object(bluezBus, path).GetProperty(iface + "." + name)
	if err != nil {
		return zero, err
	}
	val, ok := v.Value().(T)
	if !ok {
		return zero, fmt.Errorf("property %s.%s has type %T", iface, name, v.Value())
	}
	return val, nil
}
