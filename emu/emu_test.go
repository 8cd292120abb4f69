package emu

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/go-faster/jx"

	"nescore/hw/hwdefs"
	"nescore/ines"
	"nescore/tests"
)

func launch(t *testing.T, cfg Config, code []byte) *Emulator {
	t.Helper()

	rom, err := ines.Decode(tests.NROM(code, nil, nil))
	if err != nil {
		t.Fatal(err)
	}
	e, err := Launch(rom, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

// INC $00, JMP $C000
var incLoop = []byte{0xE6, 0x00, 0x4C, 0x00, 0xC0}

func TestEmulatorRunFrames(t *testing.T) {
	e := launch(t, DefaultConfig(), incLoop)

	var nbatches int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range e.Audio() {
			nbatches++
		}
	}()

	if err := e.Run(3); err != nil {
		t.Fatal(err)
	}
	<-done

	if got := e.Console.PPU.Frames; got != 3 {
		t.Errorf("frames = %d, want 3", got)
	}
	if e.Console.Peek8(0x0000) == 0 {
		t.Errorf("program didn't run")
	}
	if nbatches == 0 {
		t.Errorf("no audio received")
	}
}

func TestEmulatorAudioDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.DisableAudio = true
	e := launch(t, cfg, incLoop)

	if e.Audio() != nil {
		t.Fatalf("audio channel is not nil")
	}
	if err := e.Run(1); err != nil {
		t.Fatal(err)
	}
}

func TestEmulatorStrictOpcodes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.DisableAudio = true
	cfg.Emulation.StrictOpcodes = true
	e := launch(t, cfg, []byte{0x02})

	err := e.Run(2)
	if !hwdefs.IsKind(err, hwdefs.UnsupportedOpcode) {
		t.Fatalf("Run() error = %v, want UnsupportedOpcode", err)
	}
}

func TestEmulatorStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.DisableAudio = true
	e := launch(t, cfg, incLoop)

	errc := make(chan error)
	go func() { errc <- e.Run(0) }()

	time.Sleep(10 * time.Millisecond)
	e.Stop()

	select {
	case err := <-errc:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("emulator didn't stop")
	}
}

func TestEmulatorResets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.DisableAudio = true
	e := launch(t, cfg, incLoop)

	if err := e.Run(1); err != nil {
		t.Fatal(err)
	}
	before := e.Console.Peek8(0x0000)

	// Soft reset keeps RAM.
	e.Reset()
	e.handleReset()
	if got := e.Console.Peek8(0x0000); got != before {
		t.Errorf("$00 = %d after soft reset, want %d", got, before)
	}
	if e.Console.CPU.PC != 0xC000 {
		t.Errorf("PC = %04X after soft reset, want C000", e.Console.CPU.PC)
	}

	// Hard reset clears it.
	e.Restart()
	e.handleReset()
	if got := e.Console.Peek8(0x0000); got != 0 {
		t.Errorf("$00 = %d after hard reset, want 0", got)
	}
}

func TestEmulatorOutputs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.DisableAudio = true
	cfg.Emulation.Region = hwdefs.PAL
	e := launch(t, cfg, incLoop)
	if err := e.Run(2); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := e.WriteScreenshot(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != hwdefs.ScreenWidth || b.Dy() != hwdefs.ScreenHeight {
		t.Errorf("screenshot size = %dx%d", b.Dx(), b.Dy())
	}

	buf.Reset()
	if err := e.WriteSnapshot(&buf); err != nil {
		t.Fatal(err)
	}
	var region, mapper string
	err = jx.DecodeBytes(buf.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "region":
			region, err = d.Str()
			return err
		case "mapper":
			mapper, err = d.Str()
			return err
		}
		return d.Skip()
	})
	if err != nil {
		t.Fatal(err)
	}
	if region != "PAL" || mapper != "NROM" {
		t.Errorf("snapshot region=%q mapper=%q, want PAL and NROM", region, mapper)
	}
}
