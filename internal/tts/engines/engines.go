package engines

import (
	"fmt"

	"github.com/tobysim/radiation/internal/tts"
)

// New builds the engine named in config, applies its rate and selects the
// configured voice. A voice that matches nothing leaves the engine default.
func New(config tts.Config) (tts.Engine, error) {
	name, err := tts.ValidateEngineName(config.Engine)
	if err != nil {
		return nil, err
	}

	var engine tts.Engine
	switch name {
	case tts.EnginePiper:
		p, err := NewPiper(config.Piper)
		if err != nil {
			return nil, fmt.Errorf("unable to create piper engine: %w", err)
		}
		engine = p
	case tts.EngineGTTS:
		engine = NewGTTS(config.GTTS)
	case tts.EngineMock:
		engine = NewMock()
	}

	engine.SetRate(config.Rate)
	tts.SelectVoice(engine, config.Voice)
	return engine, nil
}
