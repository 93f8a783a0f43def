package cli

// RunOptions contains the configuration for the run command.
type RunOptions struct {
	// Debug turns on engine logging and per-hook traces on stderr.
	Debug bool

	// Quiet suppresses the banner and prompt decorations even on a TTY.
	Quiet bool
}
