package engines

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/go-homedir"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/tts"
)

const piperDefaultSampleRate = 22050

var errNoOutput = errors.New("produced no audio output")

// modelDirs are searched when no model directory is configured.
var modelDirs = []string{
	"~/.local/share/piper-voices",
	"/usr/share/piper-voices",
	"/usr/local/share/piper-voices",
}

// Piper runs the piper binary once per utterance. Each .onnx model in the
// model directory is a voice.
type Piper struct {
	argv   []string
	models map[string]string // voice name -> model path

	mu    sync.RWMutex
	voice string
	speed float64
}

// NewPiper scans for models and prepares the piper command line.
func NewPiper(config tts.PiperConfig) (*Piper, error) {
	line := config.Command
	if line == "" {
		line = "piper"
	}
	argv, err := splitCommand(line)
	if err != nil {
		return nil, fmt.Errorf("invalid piper command %q: %w", line, err)
	}

	dirs := modelDirs
	if config.ModelDir != "" {
		dirs = []string{config.ModelDir}
	}
	models := findModels(dirs)

	if config.Model != "" {
		path, err := homedir.Expand(config.Model)
		if err != nil {
			return nil, fmt.Errorf("unable to expand model path: %w", err)
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("model file not found: %w", err)
		}
		models[modelName(path)] = path
	}

	p := &Piper{argv: argv, models: models, speed: 1.0}
	if config.Model != "" {
		p.voice = modelName(config.Model)
	} else if voices := p.Voices(); len(voices) > 0 {
		p.voice = voices[0]
	}
	return p, nil
}

func findModels(dirs []string) map[string]string {
	models := make(map[string]string)
	for _, dir := range dirs {
		dir, err := homedir.Expand(dir)
		if err != nil {
			continue
		}
		_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr
			}
			if !d.IsDir() && strings.HasSuffix(path, ".onnx") {
				if _, ok := models[modelName(path)]; !ok {
					models[modelName(path)] = path
				}
			}
			return nil
		})
	}
	return models
}

func modelName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".onnx")
}

// Name returns "piper".
func (p *Piper) Name() string { return "piper" }

// Voices returns the model names found, sorted.
func (p *Piper) Voices() []string {
	voices := make([]string, 0, len(p.models))
	for v := range p.models {
		voices = append(voices, v)
	}
	sort.Strings(voices)
	return voices
}

// Voice returns the active model name.
func (p *Piper) Voice() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.voice
}

// SetVoice selects a model by name.
func (p *Piper) SetVoice(name string) error {
	if _, ok := p.models[name]; !ok {
		return fmt.Errorf("%w: %s", tts.ErrUnknownVoice, name)
	}
	p.mu.Lock()
	p.voice = name
	p.mu.Unlock()
	return nil
}

// SetRate maps words per minute onto piper's length scale.
func (p *Piper) SetRate(wpm int) {
	p.mu.Lock()
	p.speed = tts.SpeedForRate(wpm)
	p.mu.Unlock()
}

// Available checks for the binary and a model.
func (p *Piper) Available() error {
	if _, err := exec.LookPath(p.argv[0]); err != nil {
		return fmt.Errorf("%w: piper not found in PATH: %v", tts.ErrEngineNotAvailable, err)
	}
	if p.Voice() == "" {
		return fmt.Errorf("%w: no piper model found; download a voice (.onnx and .onnx.json) into ~/.local/share/piper-voices", tts.ErrEngineNotAvailable)
	}
	return nil
}

// Synthesize renders text with the active model.
func (p *Piper) Synthesize(ctx context.Context, text string) (audio.Clip, error) {
	if err := tts.CheckText(text); err != nil {
		return audio.Clip{}, err
	}

	p.mu.RLock()
	model, speed := p.models[p.voice], p.speed
	p.mu.RUnlock()
	if model == "" {
		return audio.Clip{}, fmt.Errorf("%w: no piper model selected", tts.ErrEngineNotAvailable)
	}

	argv := append([]string{}, p.argv...)
	argv = append(argv,
		"--model", model,
		"--output-raw",
		"--length-scale", fmt.Sprintf("%.2f", 1/speed),
	)

	pcm, err := runCommand(ctx, p.Name(), "synthesize", argv, strings.NewReader(text))
	if err != nil {
		return audio.Clip{}, err
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	return audio.Clip{
		Format: audio.Format{SampleRate: modelSampleRate(model), Channels: 1},
		Data:   pcm,
	}, nil
}

// modelSampleRate reads the rate from the model's .onnx.json sidecar.
func modelSampleRate(model string) int {
	data, err := os.ReadFile(model + ".json")
	if err != nil {
		return piperDefaultSampleRate
	}
	var cfg struct {
		Audio struct {
			SampleRate int `json:"sample_rate"`
		} `json:"audio"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil || cfg.Audio.SampleRate <= 0 {
		return piperDefaultSampleRate
	}
	return cfg.Audio.SampleRate
}
