package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/cache"
	"github.com/tobysim/radiation/internal/mic"
	"github.com/tobysim/radiation/internal/stt"
	"github.com/tobysim/radiation/internal/tts"
)

// settings is the whole configuration, merged by viper from defaults, the
// config file, the environment and flags.
type settings struct {
	TTS     tts.Config         `mapstructure:",squash"`
	STT     stt.Config         `mapstructure:"stt"`
	Mic     micSettings        `mapstructure:"mic"`
	Audio   audio.PlayerConfig `mapstructure:"audio"`
	Cache   cacheSettings      `mapstructure:"cache"`
	Lexicon lexiconSettings    `mapstructure:"lexicon"`
	Assets  assetSettings      `mapstructure:"assets"`
	Queue   queueSettings      `mapstructure:"queue"`
	Debug   bool               `mapstructure:"debug"`
}

type micSettings struct {
	mic.Config `mapstructure:",squash"`
	Enabled    bool `mapstructure:"enabled"`
}

// cacheSettings takes human readable sizes ("32MB") where cache.Config
// wants bytes.
type cacheSettings struct {
	Dir              string        `mapstructure:"dir"`
	MemorySize       string        `mapstructure:"memory_size"`
	DiskSize         string        `mapstructure:"disk_size"`
	CompressionLevel int           `mapstructure:"compression_level"`
	MaxAge           time.Duration `mapstructure:"max_age"`
}

type lexiconSettings struct {
	// File replaces (or with extend: true, adds to) the built-in rules.
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

type assetSettings struct {
	// Dir holds optional PNG sprites and WAV sound effects.
	Dir string `mapstructure:"dir"`
}

type queueSettings struct {
	// Capacity bounds pending utterances; 0 is unbounded.
	Capacity int `mapstructure:"capacity"`
}

func defaultSettings() settings {
	return settings{
		TTS:   tts.DefaultConfig(),
		STT:   stt.DefaultConfig(),
		Mic:   micSettings{Config: mic.DefaultConfig(), Enabled: true},
		Audio: audio.DefaultPlayerConfig(),
		Cache: cacheSettings{
			MemorySize:       "32MiB",
			DiskSize:         "256MiB",
			CompressionLevel: 3,
			MaxAge:           30 * 24 * time.Hour,
		},
		Lexicon: lexiconSettings{Watch: true},
	}
}

// loadSettings reads the merged configuration from viper.
func loadSettings() (settings, error) {
	return decodeSettings(viper.GetViper())
}

func decodeSettings(v *viper.Viper) (settings, error) {
	s := defaultSettings()
	if err := v.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("unable to decode configuration: %w", err)
	}
	// Bound flags, read directly so a changed flag always wins.
	if b := v.GetString("stt.backend"); b != "" {
		s.STT.Backend = b
	}
	if f := v.GetString("lexicon.file"); f != "" {
		s.Lexicon.File = f
	}
	if v.GetBool("no-mic") {
		s.Mic.Enabled = false
	}
	return s, s.validate()
}

func (s *settings) validate() error {
	engine, err := tts.ValidateEngineName(s.TTS.Engine)
	if err != nil {
		return err
	}
	s.TTS.Engine = engine

	if s.TTS.Rate < 0 || s.TTS.Rate > 500 {
		return fmt.Errorf("rate must be between 1 and 500 words per minute, got %d", s.TTS.Rate)
	}
	if s.Mic.PauseThreshold <= 0 {
		return errors.New("mic.pause_threshold must be positive")
	}
	if s.Mic.EnergyThreshold < 0 {
		return fmt.Errorf("mic.energy_threshold must not be negative, got %v", s.Mic.EnergyThreshold)
	}
	if s.Queue.Capacity < 0 {
		return fmt.Errorf("queue.capacity must not be negative, got %d", s.Queue.Capacity)
	}

	for _, p := range []*string{&s.Lexicon.File, &s.Assets.Dir, &s.Cache.Dir, &s.TTS.Piper.ModelDir} {
		if *p == "" {
			continue
		}
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("unable to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// cacheConfig converts the cache settings.
func (s settings) cacheConfig() (cache.Config, error) {
	memory, err := parseSize(s.Cache.MemorySize)
	if err != nil {
		return cache.Config{}, fmt.Errorf("cache.memory_size: %w", err)
	}
	disk, err := parseSize(s.Cache.DiskSize)
	if err != nil {
		return cache.Config{}, fmt.Errorf("cache.disk_size: %w", err)
	}
	return cache.Config{
		MemoryCapacity:   memory,
		DiskCapacity:     disk,
		DiskPath:         s.Cache.Dir,
		CompressionLevel: s.Cache.CompressionLevel,
		MaxAge:           s.Cache.MaxAge,
	}, nil
}

func parseSize(s string) (int64, error) {
	if s == "" || s == "0" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return int64(n), nil //nolint:gosec
}
