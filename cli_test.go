package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"

	"nescore/emu/log"
	"nescore/tests"
)

func parseTestArgs(t *testing.T, args ...string) (*CLI, *kong.Context, error) {
	t.Helper()

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("nescore"), vars)
	if err != nil {
		t.Fatal(err)
	}
	ctx, err := parser.Parse(args)
	return &cli, ctx, err
}

func TestParseRun(t *testing.T) {
	rompath := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(rompath, tests.NROM(nil, nil, nil), 0o644); err != nil {
		t.Fatal(err)
	}

	cli, ctx, err := parseTestArgs(t, "run", rompath, "--frames", "10", "--region", "pal", "--strict")
	if err != nil {
		t.Fatal(err)
	}
	if ctx.Command() != "run </path/to/rom>" {
		t.Errorf("command = %q", ctx.Command())
	}
	if cli.Run.Frames != 10 || cli.Run.Region != "pal" || !cli.Run.Strict {
		t.Errorf("run = %+v", cli.Run)
	}

	cli, _, err = parseTestArgs(t, "run", rompath)
	if err != nil {
		t.Fatal(err)
	}
	if cli.Run.Frames != 60 || cli.Run.Region != "config" || cli.Run.Strict {
		t.Errorf("run defaults = %+v", cli.Run)
	}
}

func TestParseLogFlag(t *testing.T) {
	cli, _, err := parseTestArgs(t, "--log", "ppu,cpu", "--log", "dma", "version")
	if err != nil {
		t.Fatal(err)
	}
	want := log.ModPPU.Mask() | log.ModCPU.Mask() | log.ModDMA.Mask()
	if cli.Log.mask != want || cli.Log.disable {
		t.Errorf("log flag = %+v, want mask %x", cli.Log, want)
	}

	cli, _, err = parseTestArgs(t, "--log", "no", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !cli.Log.disable || cli.Log.mask != 0 {
		t.Errorf("log flag = %+v, want disabled", cli.Log)
	}
}

func TestCreateOutput(t *testing.T) {
	w, err := createOutput("stdout")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "trace.log")
	w, err = createOutput(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("C000  4C 00 C0  JMP $C000\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() == 0 {
		t.Errorf("trace file not written: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	rompath := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(rompath, tests.NROM(nil, nil, nil), 0o644); err != nil {
		t.Fatal(err)
	}

	tcs := []struct {
		name string
		args []string
	}{
		{"missing rom", []string{"run", filepath.Join(t.TempDir(), "missing.nes")}},
		{"bad region", []string{"run", rompath, "--region", "dendy"}},
		{"bad log module", []string{"--log", "nonexistent", "version"}},
		{"no and all logs", []string{"--log", "no,all", "version"}},
	}
	for _, tt := range tcs {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := parseTestArgs(t, tt.args...); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.args)
			}
		})
	}
}
