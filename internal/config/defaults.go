package config

const (
	defaultDataDir             = "~/.local/share/herald"
	defaultLogDir              = "~/.local/share/herald/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultPollIntervalSeconds = 5
	defaultBatchSize           = 10
	defaultSendDelayMS         = 100
	defaultSendTimeoutSeconds  = 30
	defaultNotifyTimeout       = 10
	defaultSummarySchedule     = "0 18 * * *"
	defaultSummarySubject      = "MARKET"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Worker: Worker{
			PollIntervalSeconds: defaultPollIntervalSeconds,
			BatchSize:           defaultBatchSize,
			SendDelayMS:         defaultSendDelayMS,
			SendTimeoutSeconds:  defaultSendTimeoutSeconds,
		},
		Notify: Notify{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Summary: Summary{
			Enabled:  true,
			Schedule: defaultSummarySchedule,
			Subject:  defaultSummarySubject,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
