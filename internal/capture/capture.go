// Package capture provides microphone audio capture.
// It streams PCM frames from a PortAudio input device to the active
// recording session.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// SampleRate is the capture sample rate in Hz. Whisper expects 16 kHz mono.
const SampleRate = 16000

// framesPerBuffer is the PortAudio read size in samples.
const framesPerBuffer = 1024

// ErrDevice indicates the configured input device could not be opened.
var ErrDevice = errors.New("audio device unavailable")

// ErrAlreadyCapturing is returned when Start is called on a running recorder.
var ErrAlreadyCapturing = errors.New("already capturing")

// Recorder captures microphone audio and delivers it as float32 PCM frames.
type Recorder interface {
	// Start opens the device and begins capture. Frames arrive on the
	// returned channel until Stop is called or ctx is cancelled, after
	// which the channel is closed.
	Start(ctx context.Context) (<-chan []float32, error)
	// Stop ends the capture and releases the device.
	Stop() error
}

// PortAudioRecorder captures from a PortAudio input device.
// Device index -1 selects the default input device.
type PortAudioRecorder struct {
	mu        sync.Mutex
	device    int
	logger    *slog.Logger
	capturing bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewPortAudioRecorder creates a recorder for the given device index.
func NewPortAudioRecorder(device int, logger *slog.Logger) *PortAudioRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortAudioRecorder{device: device, logger: logger}
}

// Start opens the input stream and begins pushing frames.
func (r *PortAudioRecorder) Start(ctx context.Context) (<-chan []float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capturing {
		return nil, ErrAlreadyCapturing
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: portaudio init: %v", ErrDevice, err)
	}

	in := make([]int16, framesPerBuffer)
	stream, err := r.openStream(in)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: %v", ErrDevice, err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("%w: start stream: %v", ErrDevice, err)
	}

	frames := make(chan []float32, 64)
	r.capturing = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})

	go r.captureLoop(ctx, stream, in, frames)

	r.logger.Debug("capture started", "device", r.device, "sample_rate", SampleRate)
	return frames, nil
}

// openStream opens either the default input stream or the configured device.
func (r *PortAudioRecorder) openStream(in []int16) (*portaudio.Stream, error) {
	if r.device < 0 {
		return portaudio.OpenDefaultStream(1, 0, float64(SampleRate), len(in), in)
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if r.device >= len(devices) {
		return nil, fmt.Errorf("device index %d out of range (%d devices)", r.device, len(devices))
	}

	params := portaudio.LowLatencyParameters(devices[r.device], nil)
	params.Input.Channels = 1
	params.SampleRate = float64(SampleRate)
	params.FramesPerBuffer = len(in)
	return portaudio.OpenStream(params, in)
}

func (r *PortAudioRecorder) captureLoop(ctx context.Context, stream *portaudio.Stream, in []int16, frames chan<- []float32) {
	defer func() {
		_ = stream.Stop()
		_ = stream.Close()
		_ = portaudio.Terminate()
		close(frames)
		close(r.doneCh)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			// Overflows are routine when the consumer briefly lags.
			if errors.Is(err, portaudio.InputOverflowed) {
				continue
			}
			r.logger.Warn("stream read failed", "error", err)
			return
		}

		frame := make([]float32, len(in))
		for i, s := range in {
			frame[i] = float32(s) / 32768.0
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		}
	}
}

// Stop ends the capture and waits for the device to be released.
func (r *PortAudioRecorder) Stop() error {
	r.mu.Lock()
	if !r.capturing {
		r.mu.Unlock()
		return nil
	}
	r.capturing = false
	close(r.stopCh)
	done := r.doneCh
	r.mu.Unlock()

	<-done
	r.logger.Debug("capture stopped")
	return nil
}
