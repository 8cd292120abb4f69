// Package emu runs a console for a host: configuration, emulation loop and
// outputs (screenshots, snapshots, audio samples).
package emu

import (
	"image/png"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"

	"nescore/emu/log"
	"nescore/hw"
	"nescore/hw/apu"
	"nescore/ines"
)

// number of sample batches buffered between the emulator and the audio
// consumer, about 4 frames.
const audioQueueLen = 16

type Emulator struct {
	Console *hw.Console
	Rom     *ines.Rom

	cfg   Config
	audio chan apu.SampleBatch

	// These are accessed concurrently by the emulator loop and the host.
	quit    atomic.Bool
	paused  atomic.Bool
	reset   atomic.Bool
	restart atomic.Bool
}

// Launch creates the console, plugs the cartridge and powers it up. It
// doesn't start the emulation loop, call Run() for that.
func Launch(rom *ines.Rom, cfg Config) (*Emulator, error) {
	cfg.Check()

	e := &Emulator{Rom: rom, cfg: cfg}
	ccfg := hw.ConsoleConfig{
		Region:        cfg.Emulation.Region,
		StrictOpcodes: cfg.Emulation.StrictOpcodes,
		SampleRate:    cfg.Audio.SampleRate,
		Volumes:       cfg.ChannelVolumes(),
	}
	if cfg.Audio.DisableAudio {
		log.ModEmu.WarnZ("Audio disabled").End()
	} else {
		e.audio = make(chan apu.SampleBatch, audioQueueLen)
		ccfg.Audio = e.audio
		log.ModEmu.InfoZ("Audio enabled").Int("rate", cfg.Audio.SampleRate).End()
	}

	e.Console = hw.NewConsole(ccfg)
	if err := e.Console.LoadCartridge(rom); err != nil {
		return nil, errors.Wrap(err, "power up failed")
	}

	// CPU execution trace setup.
	if cfg.TraceOut != nil {
		e.Console.SetTraceOutput(cfg.TraceOut)
	}

	e.Console.PowerOn()
	return e, nil
}

// Audio returns the channel on which sample batches are sent, nil if audio
// is disabled. Batches are dropped when the consumer doesn't keep up.
func (e *Emulator) Audio() <-chan apu.SampleBatch {
	return e.audio
}

// RunOneFrame runs the console until the next frame is complete.
func (e *Emulator) RunOneFrame() (*hw.Frame, error) {
	return e.Console.RunUntilFrame()
}

// Run runs the emulation loop until Stop is called, the CPU halts, or
// maxFrames frames have been emulated (if maxFrames > 0). The audio channel
// is closed when Run returns.
func (e *Emulator) Run(maxFrames int) error {
	if e.audio != nil {
		defer close(e.audio)
	}

	start := time.Now()
	frames := 0
	for maxFrames <= 0 || frames < maxFrames {
		if e.quit.Load() {
			break
		}
		e.handleReset()

		if e.paused.Load() {
			// Don't burn cpu while paused.
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if _, err := e.RunOneFrame(); err != nil {
			return errors.Wrapf(err, "emulation stopped at frame %d", frames)
		}
		frames++
	}

	log.ModEmu.InfoZ("Emulation loop exited").
		Int("frames", frames).
		Duration("elapsed", time.Since(start)).
		Int("dropped_audio", e.Console.DroppedAudio()).
		End()
	return nil
}

// SetPause, Stop, Reset and Restart allows to control
// the emulator loop in a concurrent-safe way.

func (e *Emulator) SetPause(pause bool) { e.paused.CompareAndSwap(!pause, pause) }
func (e *Emulator) Reset()              { e.reset.Store(true) }
func (e *Emulator) Restart()            { e.restart.Store(true) }
func (e *Emulator) Stop()               { e.quit.Store(true) }

func (e *Emulator) handleReset() {
	if e.reset.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing soft reset").End()
		e.Console.Reset()
	} else if e.restart.CompareAndSwap(true, false) {
		log.ModEmu.InfoZ("Performing hard reset").End()
		e.Console.PowerOn()
	}
}

// WriteScreenshot encodes the last frame in PNG.
func (e *Emulator) WriteScreenshot(w io.Writer) error {
	return png.Encode(w, e.Console.Frame().RGBA())
}

// WriteSnapshot encodes the console state in JSON.
func (e *Emulator) WriteSnapshot(w io.Writer) error {
	buf, err := e.Console.Snapshot().MarshalJSON()
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	_, err = w.Write(buf)
	return err
}

// SaveScreenshot writes the last frame as a PNG file.
func (e *Emulator) SaveScreenshot(path string) error {
	return writeFile(path, e.WriteScreenshot)
}

// SaveSnapshot writes the console state as a JSON file.
func (e *Emulator) SaveSnapshot(path string) error {
	return writeFile(path, e.WriteSnapshot)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return f.Close()
}
