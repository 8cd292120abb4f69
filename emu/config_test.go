package emu

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
)

func TestDecodeConfig(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want Config
	}{
		{
			name: "empty",
			toml: "",
			want: DefaultConfig(),
		},
		{
			name: "full",
			toml: `
[emulation]
region = "pal"
strict_opcodes = true

[audio]
sample_rate = 48000
disable_audio = true

[general]
log = ["ppu", "sound"]
`,
			want: Config{
				Emulation: EmulationConfig{Region: hwdefs.PAL, StrictOpcodes: true},
				Audio:     AudioConfig{SampleRate: 48000, DisableAudio: true},
				General:   GeneralConfig{Log: []string{"ppu", "sound"}},
			},
		},
		{
			name: "partial",
			toml: `
[emulation]
strict_opcodes = true
`,
			want: Config{
				Emulation: EmulationConfig{Region: hwdefs.NTSC, StrictOpcodes: true},
				Audio:     AudioConfig{SampleRate: apu.DefaultSampleRate},
			},
		},
		{
			name: "volumes",
			toml: `
[audio.volume]
square1 = 0.5
noise = 0.0
`,
			want: Config{
				Emulation: EmulationConfig{Region: hwdefs.NTSC},
				Audio: AudioConfig{
					SampleRate: apu.DefaultSampleRate,
					Volume:     map[string]float64{"square1": 0.5, "noise": 0},
				},
			},
		},
		{
			name: "invalid sample rate",
			toml: `
[audio]
sample_rate = 1000000
`,
			want: DefaultConfig(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeConfig(strings.NewReader(tt.toml))
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeConfig() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChannelVolumes(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Audio.Volume = map[string]float64{
		"triangle": 0.25,
		"square2":  1,
		"dmc":      0.5,
	}
	want := map[apu.Channel]float64{
		apu.Triangle: 0.25,
		apu.Square2:  1,
	}
	if diff := cmp.Diff(want, cfg.ChannelVolumes()); diff != "" {
		t.Errorf("ChannelVolumes() mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"syntax", "[emulation\n"},
		{"unknown region", "[emulation]\nregion = \"dendy\"\n"},
		{"wrong type", "[audio]\nsample_rate = \"high\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeConfig(strings.NewReader(tt.toml)); err == nil {
				t.Errorf("DecodeConfig() succeeded, want error")
			}
		})
	}
}

func TestEncodeConfigRoundTrip(t *testing.T) {
	cfg := Config{
		Emulation: EmulationConfig{Region: hwdefs.PAL, StrictOpcodes: true},
		Audio:     AudioConfig{SampleRate: 22050},
		General:   GeneralConfig{Log: []string{"cpu"}},
	}

	var buf bytes.Buffer
	if err := EncodeConfig(&buf, cfg); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `region = "pal"`) {
		t.Errorf("encoded config doesn't contain the region:\n%s", buf.String())
	}

	got, err := DecodeConfig(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigLogMask(t *testing.T) {
	cfg := Config{General: GeneralConfig{Log: []string{"ppu", "nonexistent", "cpu"}}}
	want := log.ModPPU.Mask() | log.ModCPU.Mask()
	if got := cfg.LogMask(); got != want {
		t.Errorf("LogMask() = %x, want %x", got, want)
	}

	cfg.General.Log = []string{"ppu", "all"}
	if got := cfg.LogMask(); got != log.ModuleMaskAll {
		t.Errorf("LogMask() = %x, want all", got)
	}
}
