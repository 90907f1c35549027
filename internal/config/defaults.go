package config

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Path:       "~/.config/vitalsmon",
			SQLiteFile: "vitalsmon.db",
		},
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8722,
			MaxRequestSize:      16384,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
		},
		Ingest: IngestConfig{
			AllowedHosts: HostList{},
			RateLimit:    50,
			Burst:        100,
			CORSOrigins:  []string{"*"},
		},
		Query: QueryConfig{
			TimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   false,
		},
	}
}
