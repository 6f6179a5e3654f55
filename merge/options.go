package merge

import (
	"fmt"
	"time"

	"github.com/zipstamp/zipstamp/internal/options"
)

type config struct {
	outputTimestamp   time.Time
	buildReproducible bool
	requireLastBuild  bool
	logger            Logger
	location          *time.Location
	now               func() time.Time
}

// Option configures a merge run.
type Option = options.Option[*config]

func newConfig(outputTimestamp time.Time, opts ...Option) (*config, error) {
	if outputTimestamp.IsZero() {
		return nil, fmt.Errorf("output timestamp is required")
	}

	cfg := &config{
		outputTimestamp:   outputTimestamp,
		buildReproducible: true,
		requireLastBuild:  true,
		logger:            NopLogger(),
		location:          time.Local,
		now:               time.Now,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithBuildReproducible selects the reproducibility mode of pass A: when
// true (the default) entry timestamps are verified against the output
// timestamp; when false they are patched to it.
func WithBuildReproducible(reproducible bool) Option {
	return options.NoError(func(cfg *config) {
		cfg.buildReproducible = reproducible
	})
}

// WithRequireLastBuild controls whether a directory merge demands a
// one-to-one pairing between the two directories' archives. Default true.
func WithRequireLastBuild(require bool) Option {
	return options.NoError(func(cfg *config) {
		cfg.requireLastBuild = require
	})
}

// WithLogger installs the diagnostic logger. A nil logger restores the
// discarding default.
func WithLogger(logger Logger) Option {
	return options.NoError(func(cfg *config) {
		if logger == nil {
			logger = NopLogger()
		}
		cfg.logger = logger
	})
}

// WithLocation fixes the time zone used for the DOS local-clock convention,
// so runs on differently-configured hosts agree byte-for-byte. A nil
// location selects the process's local zone, which is the default.
func WithLocation(loc *time.Location) Option {
	return options.NoError(func(cfg *config) {
		if loc == nil {
			loc = time.Local
		}
		cfg.location = loc
	})
}

// WithCurrentTime pins the wall-clock snapshot used for future-timestamp
// warnings and updated-entry times. Intended for tests; the default is
// time.Now, sampled once per run.
func WithCurrentTime(now time.Time) Option {
	return options.NoError(func(cfg *config) {
		cfg.now = func() time.Time { return now }
	})
}
