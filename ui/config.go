package ui

// Config contains TUI-specific configuration.
type Config struct {
	// Shown in the status bar.
	Engine string
	Voice  string

	// InputTTY reads keys from the terminal instead of stdin, which then
	// belongs to the console injector.
	InputTTY bool

	// For debugging the UI
	Debug bool `env:"RADIATION_DEBUG"`
	// Only re-render the canvas when the pose, caption or window changed.
	HighPerformancePipeline bool `env:"RADIATION_HIGH_PERFORMANCE_PIPELINE" envDefault:"true"`
	// Overrides the detected color profile: "ascii", "ansi", "ansi256" or
	// "truecolor".
	ColorProfile string `env:"RADIATION_COLOR_PROFILE"`
}
