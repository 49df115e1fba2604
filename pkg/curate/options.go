package curate

import (
	"io"
	"log/slog"

	"github.com/askiada/go-curate/pkg/curate/model"
)

// DefaultSourceRepoURL is written to workflow files unless WithSourceRepoURL is used.
const DefaultSourceRepoURL = "https://github.com/askiada/go-curate"

type settings struct {
	name             string
	description      string
	repoURL          string
	history          bool
	workers          int
	suppressWarnings bool
	unsafe           bool
	logger           *slog.Logger
	runOptions       []model.RunOption
}

func newSettings(opts []Option) *settings {
	s := &settings{
		repoURL: DefaultSourceRepoURL,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Option configures a workflow built with New or read with Load.
type Option func(s *settings)

// WithName sets the human-facing workflow name.
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithDescription sets the human-facing workflow description.
func WithDescription(description string) Option {
	return func(s *settings) {
		s.description = description
	}
}

// WithSourceRepoURL sets the repository recorded in saved workflow files.
func WithSourceRepoURL(url string) Option {
	return func(s *settings) {
		s.repoURL = url
	}
}

// WithHistory keeps a snapshot of every record before each update.
func WithHistory(enabled bool) Option {
	return func(s *settings) {
		s.history = enabled
	}
}

// WithWorkers bounds the per-record parallelism inside a step. Zero lets the
// engine decide; one runs every step sequentially.
func WithWorkers(n int) Option {
	return func(s *settings) {
		s.workers = n
	}
}

// SuppressWarnings silences the advisory checks done when a workflow is built.
func SuppressWarnings() Option {
	return func(s *settings) {
		s.suppressWarnings = true
	}
}

// WithLogger sets the logger used by the workflow. Logs are discarded by default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRunOptions attaches observers called during every run.
func WithRunOptions(opts ...model.RunOption) Option {
	return func(s *settings) {
		s.runOptions = append(s.runOptions, opts...)
	}
}

// Unsafe makes Load skip verification. The workflow it returns is Untrusted.
// New ignores it.
func Unsafe() Option {
	return func(s *settings) {
		s.unsafe = true
	}
}
