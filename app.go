package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"

	"github.com/tobysim/radiation/internal/audio"
	"github.com/tobysim/radiation/internal/cache"
	"github.com/tobysim/radiation/internal/canvas"
	"github.com/tobysim/radiation/internal/lexicon"
	"github.com/tobysim/radiation/internal/mic"
	"github.com/tobysim/radiation/internal/pipeline"
	"github.com/tobysim/radiation/internal/queue"
	"github.com/tobysim/radiation/internal/stt"
	"github.com/tobysim/radiation/internal/tts"
	"github.com/tobysim/radiation/internal/tts/engines"
	"github.com/tobysim/radiation/ui"
)

// app owns every long-lived component of a session.
type app struct {
	settings settings
	inputTTY bool

	engine  tts.Engine
	player  *audio.Player
	store   *cache.Store
	stage   *pipeline.Stage
	queue   *queue.UtteranceQueue
	sprites *canvas.Sprites
	sounds  audio.EffectBank
	workers []pipeline.Worker
	prompt  *io.PipeWriter // nil when stdin is piped

	closers []func() error
}

// newApp builds the components. Anything that fails here is a startup
// error; once running, failures are logged and survived.
func newApp(s settings, stdinPiped bool) (_ *app, err error) {
	a := &app{settings: s, inputTTY: stdinPiped}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	lex, err := loadLexicon(s.Lexicon.File)
	if err != nil {
		return nil, err
	}

	cacheConfig, err := s.cacheConfig()
	if err != nil {
		return nil, err
	}
	a.store, err = cache.Open(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio cache: %w", err)
	}
	a.closers = append(a.closers, a.store.Close)

	a.engine, err = engines.New(s.TTS)
	if err != nil {
		return nil, err
	}
	if err := a.engine.Available(); err != nil {
		return nil, fmt.Errorf("%w\n\n%s", err, tts.Guidance(a.engine.Name()))
	}

	a.player, err = audio.NewPlayer(s.Audio)
	if err != nil {
		return nil, fmt.Errorf("unable to open audio output: %w", err)
	}
	a.closers = append(a.closers, a.player.Close)

	a.sprites, err = canvas.LoadSprites(s.Assets.Dir)
	if err != nil {
		return nil, err
	}
	a.sounds, err = audio.LoadEffects(s.Assets.Dir, a.player.SampleRate())
	if err != nil {
		return nil, err
	}

	a.stage = pipeline.NewStage()
	a.queue = queue.New(s.Queue.Capacity)

	speaker := tts.NewSpeaker(a.engine, a.player, s.TTS.Rate,
		tts.WithCache(a.store),
		tts.WithTimeout(s.TTS.Timeout),
	)
	a.workers = append(a.workers, pipeline.NewSynthesisWorker(pipeline.TTSSpeaker{Speaker: speaker}, a.queue, a.stage))

	// Exactly one reader feeds the console injector: piped stdin, or the
	// prompt in the UI.
	var console io.Reader = os.Stdin
	if !stdinPiped {
		pr, pw := io.Pipe()
		a.prompt = pw
		a.closers = append(a.closers, pw.Close)
		console = pr
	}
	a.workers = append(a.workers, pipeline.NewConsoleInjector(console, a.queue))

	if s.Mic.Enabled {
		w, err := a.transcriptionWorker(lex)
		if err != nil {
			return nil, err
		}
		a.workers = append(a.workers, w)
	}

	if s.Lexicon.File != "" && s.Lexicon.Watch {
		watcher, err := lexicon.NewWatcher(lex, s.Lexicon.File)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, watcher.Close)
		a.workers = append(a.workers, watcher)
	}

	log.Info("Ready",
		"engine", a.engine.Name(),
		"voice", a.engine.Voice(),
		"rate", s.TTS.Rate,
		"mic", s.Mic.Enabled,
		"stt", s.STT.Backend,
		"rules", lex.Len(),
	)
	return a, nil
}

func (a *app) transcriptionWorker(lex *lexicon.Lexicon) (pipeline.Worker, error) {
	transcriber, err := stt.New(a.settings.STT)
	if err != nil {
		return nil, err
	}

	device, err := mic.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("unable to open microphone (try --no-mic): %w", err)
	}
	a.closers = append(a.closers, device.Close)

	listener := mic.NewListener(device, a.settings.Mic.Config)
	listener.OnListening = a.stage.SetListening

	return pipeline.NewTranscriptionWorker(listener, transcriber, lex, a.queue), nil
}

// run shows the UI until the user quits, then stops the workers.
func (a *app) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	cfg.Engine = a.engine.Name()
	cfg.Voice = a.engine.Voice()
	cfg.InputTTY = a.inputTTY
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	runner := pipeline.NewRunner(a.queue, a.workers...)
	deps := ui.Deps{
		View:    a.stage,
		Queue:   a.queue,
		Sprites: a.sprites,
		Sounds:  a.sounds,
		Output:  a.player,
		Start: func() error {
			return runner.Start(ctx)
		},
	}
	if a.prompt != nil {
		deps.Prompt = a.prompt
	}

	_, runErr := ui.NewProgram(cfg, deps).Run()

	if err := runner.Stop(); err != nil {
		log.Error("Worker failed", "error", err)
	}
	memory, disk := a.store.Stats()
	log.Info("Session over", "queue", a.queue.Stats().TotalDequeued, "memory_cache", memory, "disk_cache", disk)

	if runErr != nil {
		return fmt.Errorf("unable to run tui program: %w", runErr)
	}
	return nil
}

// close releases everything in reverse order of creation.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && !errors.Is(err, os.ErrClosed) {
			log.Debug("Close failed", "error", err)
		}
	}
	a.closers = nil
}

// loadLexicon returns the built-in lexicon, or the one in path.
func loadLexicon(path string) (*lexicon.Lexicon, error) {
	lex := lexicon.Default()
	if path == "" {
		return lex, nil
	}
	rules, err := lexicon.Load(path)
	if err != nil {
		return nil, err
	}
	lex.Replace(rules)
	return lex, nil
}
