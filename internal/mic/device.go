package mic

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"

	"github.com/tobysim/radiation/internal/audio"
)

// DeviceSampleRate is the capture rate; speech recognizers expect 16 kHz.
const DeviceSampleRate = 16000

// Device captures from the default input device with miniaudio.
type Device struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	chunks chan []int16

	mu      sync.Mutex
	running bool
	closed  bool

	dropped atomic.Int64
}

// OpenDevice initializes the audio backend and the default capture device.
func OpenDevice() (*Device, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(msg string) {
		log.Debug("malgo", "message", msg)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	d := &Device{ctx: mctx, chunks: make(chan []int16, 64)}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatS16
	config.Capture.Channels = 1
	config.SampleRate = DeviceSampleRate
	config.Alsa.NoMMap = 1

	device, err := malgo.InitDevice(mctx.Context, config, malgo.DeviceCallbacks{
		Data: d.onData,
	})
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, fmt.Errorf("failed to open capture device: %w", err)
	}
	d.device = device

	return d, nil
}

// onData runs on the backend's thread; the input buffer is only valid for
// the duration of the call.
func (d *Device) onData(_, input []byte, frames uint32) {
	n := min(int(frames), len(input)/2)
	chunk := make([]int16, n)
	for i := range chunk {
		chunk[i] = int16(binary.LittleEndian.Uint16(input[i*2:]))
	}

	select {
	case d.chunks <- chunk:
	default:
		d.dropped.Add(1)
	}
}

// Format returns 16 kHz mono.
func (d *Device) Format() audio.Format {
	return audio.Format{SampleRate: DeviceSampleRate, Channels: 1}
}

// Start begins capturing.
func (d *Device) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if d.running {
		return nil
	}
	if err := d.device.Start(); err != nil {
		return fmt.Errorf("failed to start capture: %w", err)
	}
	d.running = true
	return nil
}

// Read returns the next captured chunk.
func (d *Device) Read(ctx context.Context) ([]int16, error) {
	select {
	case chunk := <-d.chunks:
		return chunk, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stop pauses capture and discards anything buffered.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.running = false
	err := d.device.Stop()

	for {
		select {
		case <-d.chunks:
		default:
			if n := d.dropped.Swap(0); n > 0 {
				log.Debug("Dropped capture chunks", "count", n)
			}
			return err
		}
	}
}

// Close releases the device and the backend context.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if d.running {
		_ = d.device.Stop()
		d.running = false
	}
	d.device.Uninit()
	err := d.ctx.Uninit()
	d.ctx.Free()
	return err
}
