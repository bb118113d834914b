package config

const (
	defaultLibraryDir           = "/manga"
	defaultDataDir              = "/data"
	defaultBatchSize            = 500
	defaultBatchIntervalSeconds = 30
	defaultProgressEvery        = 10
	defaultWatchIntervalSeconds = 300
	defaultMinFreeMB            = 64
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogMaxSizeMB         = 50
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			DataDir:    defaultDataDir,
		},
		Scan: Scan{
			BatchSize:            defaultBatchSize,
			BatchIntervalSeconds: defaultBatchIntervalSeconds,
			ProgressEvery:        defaultProgressEvery,
			WatchIntervalSeconds: defaultWatchIntervalSeconds,
			MinFreeMB:            defaultMinFreeMB,
		},
		Logging: Logging{
			Format:    defaultLogFormat,
			Level:     defaultLogLevel,
			MaxSizeMB: defaultLogMaxSizeMB,
		},
	}
}
