package ds4

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Alia5/padbridge/apiclient"
	"github.com/Alia5/padbridge/apitypes"
	"github.com/Alia5/padbridge/device/dualshock4"
	"github.com/Alia5/padbridge/internal/log"
)

type Options struct {
	// BusID selects the VIIPER bus. Zero uses the first existing bus or
	// creates one.
	BusID      uint32
	Device     *apiclient.DeviceOptions
	TriggerMax uint16

	Logger    *slog.Logger
	RawLogger log.RawLogger
}

// Device is a virtual DualShock 4 plugged into a VIIPER bus. It is an
// emit.Sink for one controller.
type Device struct {
	*Sink

	client     *apiclient.Client
	stream     *apiclient.DeviceStream
	info       apitypes.Device
	busID      uint32
	createdBus bool
	logger     *slog.Logger

	closeOnce sync.Once
	closeErr  error

	cancelFeedback context.CancelFunc
	feedbackDone   chan struct{}
}

// Open plugs a new dualshock4 device into the selected bus and connects to
// its stream. Rumble and LED feedback from the host is logged.
func Open(ctx context.Context, client *apiclient.Client, o Options) (*Device, error) {
	logger := o.Logger
	if logger == nil {
		logger = slog.Default()
	}

	busID, created, err := ensureBus(ctx, client, o.BusID)
	if err != nil {
		return nil, err
	}
	d := &Device{client: client, busID: busID, createdBus: created, logger: logger}

	stream, info, err := client.AddDeviceAndConnect(ctx, busID, dualshock4.DeviceType, o.Device)
	if info != nil {
		d.info = *info
	}
	if err != nil {
		d.cleanup(info != nil)
		return nil, fmt.Errorf("add %s device: %w", dualshock4.DeviceType, err)
	}
	d.stream = stream
	d.Sink = NewSink(stream, o.TriggerMax, o.RawLogger)
	d.logger = logger.With("bus", busID, "dev", d.info.DevId)

	fbCtx, cancel := context.WithCancel(context.Background())
	d.cancelFeedback = cancel
	d.feedbackDone = make(chan struct{})
	go d.readFeedback(fbCtx)

	d.logger.Info("virtual DualShock 4 attached", "vid", d.info.Vid, "pid", d.info.Pid)
	return d, nil
}

func ensureBus(ctx context.Context, client *apiclient.Client, want uint32) (uint32, bool, error) {
	list, err := client.BusList(ctx)
	if err != nil {
		return 0, false, fmt.Errorf("list buses: %w", err)
	}
	if want != 0 && slices.Contains(list.Buses, want) {
		return want, false, nil
	}
	if want == 0 && len(list.Buses) > 0 {
		return slices.Min(list.Buses), false, nil
	}
	created, err := client.BusCreate(ctx, want)
	if err != nil {
		return 0, false, fmt.Errorf("create bus: %w", err)
	}
	return created.BusID, true, nil
}

func (d *Device) Info() apitypes.Device { return d.info }

func (d *Device) readFeedback(ctx context.Context) {
	defer close(d.feedbackDone)
	msgs, errs := d.stream.ReadMessages(ctx, dualshock4.OutputStateSize)
	for msg := range msgs {
		var out dualshock4.OutputState
		if err := out.UnmarshalBinary(msg); err != nil {
			continue
		}
		d.logger.Debug("feedback", "state", out)
	}
	if err := <-errs; err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, apiclient.ErrStreamClosed) {
		d.logger.Warn("device stream ended", "error", err)
	}
}

// Close detaches the stream, removes the device and, if Open created the
// bus, removes the bus too.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.cancelFeedback()
		streamErr := d.stream.Close()
		<-d.feedbackDone
		d.closeErr = errors.Join(streamErr, d.cleanup(true))
	})
	return d.closeErr
}

func (d *Device) cleanup(removeDevice bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var errs []error
	if removeDevice && d.info.DevId != "" {
		if _, err := d.client.DeviceRemove(ctx, d.busID, d.info.DevId); err != nil {
			errs = append(errs, fmt.Errorf("remove device: %w", err))
		}
	}
	if d.createdBus {
		if _, err := d.client.BusRemove(ctx, d.busID); err != nil {
			errs = append(errs, fmt.Errorf("remove bus: %w", err))
		}
	}
	return errors.Join(errs...)
}
