package config

const (
	defaultWorkers          = 0
	defaultTrackHistory     = false
	defaultSuppressWarnings = false
	defaultLogLevel         = "info"
	defaultLogFormat        = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Engine: Engine{
			Workers:          defaultWorkers,
			TrackHistory:     defaultTrackHistory,
			SuppressWarnings: defaultSuppressWarnings,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
