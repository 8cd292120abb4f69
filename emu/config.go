package emu

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/go-faster/errors"
	"github.com/kirsle/configdir"

	"nescore/emu/log"
	"nescore/hw/apu"
	"nescore/hw/hwdefs"
)

type Config struct {
	Emulation EmulationConfig `toml:"emulation"`
	Audio     AudioConfig     `toml:"audio"`
	General   GeneralConfig   `toml:"general"`

	TraceOut io.Writer `toml:"-"`
}

type EmulationConfig struct {
	Region hwdefs.Region `toml:"region"`

	// StrictOpcodes halts the emulation on unofficial opcodes, instead of
	// executing them as NOPs.
	StrictOpcodes bool `toml:"strict_opcodes"`
}

type AudioConfig struct {
	SampleRate   int  `toml:"sample_rate"`
	DisableAudio bool `toml:"disable_audio"`

	// Volume of the channels in [0, 1], by name (square1, square2, triangle,
	// noise). Unlisted channels are at full volume.
	Volume map[string]float64 `toml:"volume"`
}

type GeneralConfig struct {
	// Log lists the modules for which debug logs are enabled.
	Log []string `toml:"log"`
}

// DefaultConfig returns the configuration used when none has been saved.
func DefaultConfig() Config {
	return Config{
		Emulation: EmulationConfig{Region: hwdefs.NTSC},
		Audio:     AudioConfig{SampleRate: apu.DefaultSampleRate},
	}
}

// Check fixes invalid values, falling back to defaults.
func (cfg *Config) Check() {
	if sr := cfg.Audio.SampleRate; sr <= 0 || sr > apu.MaxSampleRate {
		log.ModEmu.WarnZ("invalid sample rate, using default").
			Int("rate", sr).
			Int("default", apu.DefaultSampleRate).
			End()
		cfg.Audio.SampleRate = apu.DefaultSampleRate
	}
}

// ChannelVolumes returns the volumes listed in the [audio.volume] section.
// Unknown channel names are ignored.
func (cfg *Config) ChannelVolumes() map[apu.Channel]float64 {
	vols := make(map[apu.Channel]float64, len(cfg.Audio.Volume))
	for name, vol := range cfg.Audio.Volume {
		ch, ok := apu.ChannelByName(name)
		if !ok {
			log.ModSound.WarnZ("unknown audio channel in config").String("name", name).End()
			continue
		}
		vols[ch] = vol
	}
	return vols
}

// LogMask returns the mask of the modules listed in the [general] section.
// Unknown module names are ignored.
func (cfg *Config) LogMask() log.ModuleMask {
	var mask log.ModuleMask
	for _, name := range cfg.General.Log {
		if name == "all" {
			return log.ModuleMaskAll
		}
		mod, ok := log.ModuleByName(name)
		if !ok {
			log.ModEmu.WarnZ("unknown log module in config").String("name", name).End()
			continue
		}
		mask |= mod.Mask()
	}
	return mask
}

var ConfigDir = sync.OnceValue(func() string {
	dir := configdir.LocalConfig("nescore")
	if err := configdir.MakePath(dir); err != nil {
		log.ModEmu.Fatalf("failed to create directory %s: %v", dir, err)
	}
	return dir
})

const cfgFilename = "config.toml"

// DecodeConfig reads a TOML configuration. Missing keys keep their default
// value.
func DecodeConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode config")
	}
	for _, key := range md.Undecoded() {
		log.ModEmu.WarnZ("unknown config key").String("key", key.String()).End()
	}
	cfg.Check()
	return cfg, nil
}

// LoadConfigOrDefault loads the configuration from the nescore config
// directory, or provides the default one.
func LoadConfigOrDefault() Config {
	path := filepath.Join(ConfigDir(), cfgFilename)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig()
	}
	if err != nil {
		log.ModEmu.WarnZ("failed to open config, using defaults").Error("err", err).End()
		return DefaultConfig()
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		log.ModEmu.WarnZ("invalid config, using defaults").
			String("path", path).
			Error("err", err).
			End()
		return DefaultConfig()
	}
	return cfg
}

// EncodeConfig writes cfg in TOML.
func EncodeConfig(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// SaveConfig into nescore config directory.
func SaveConfig(cfg Config) error {
	var buf bytes.Buffer
	if err := EncodeConfig(&buf, cfg); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return os.WriteFile(filepath.Join(ConfigDir(), cfgFilename), buf.Bytes(), 0644)
}
