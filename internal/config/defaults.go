package config

const (
	defaultConfigPath                = "~/.config/jellyzam/config.toml"
	defaultStateDir                  = "~/.local/share/jellyzam"
	defaultLogDir                    = "~/.local/share/jellyzam/logs"
	defaultRecognitionBaseURL        = "https://shazam.p.rapidapi.com"
	defaultRecognitionHost           = "shazam.p.rapidapi.com"
	defaultRecognitionTimeoutSeconds = 30
	defaultSampleMode                = SampleModeHead
	defaultSampleMaxBytes            = 1024 * 1024
	defaultSampleWindowSeconds       = 12
	defaultConfidenceThreshold       = 0.8
	defaultScanWorkers               = 1
	defaultWatchDebounceMS           = 2000
	defaultNotifyRequestTimeout      = 10
	defaultLogFormat                 = "console"
	defaultLogLevel                  = "info"
	defaultLogRetentionDays          = 30
	defaultLogMaxSizeMB              = 20
	defaultLogMaxBackups             = 5
)

// Sample modes accepted by sample.mode.
const (
	SampleModeHead      = "head"
	SampleModeWAVWindow = "wav_window"
)

var defaultAudioExtensions = []string{".mp3", ".flac", ".m4a", ".ogg", ".opus", ".wav", ".aac", ".wma"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Recognition: Recognition{
			BaseURL:        defaultRecognitionBaseURL,
			Host:           defaultRecognitionHost,
			TimeoutSeconds: defaultRecognitionTimeoutSeconds,
		},
		Sample: Sample{
			Mode:          defaultSampleMode,
			MaxBytes:      defaultSampleMaxBytes,
			WindowSeconds: defaultSampleWindowSeconds,
		},
		Identification: Identification{
			ConfidenceThreshold: defaultConfidenceThreshold,
		},
		Organize: Organize{
			Enabled:          true,
			CleanupEmptyDirs: true,
		},
		Scan: Scan{
			RunInitialScan:  true,
			Workers:         defaultScanWorkers,
			AudioExtensions: append([]string(nil), defaultAudioExtensions...),
			WatchDebounceMS: defaultWatchDebounceMS,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Identification: false,
			Scan:           true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}
