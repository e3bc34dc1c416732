package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
// Track files carry their own render settings; these cover the outer surfaces.
type Config struct {
	// Server
	Port int

	// Streaming and playback
	SampleRate      int     // stream/device rate, must be an Opus rate for WebRTC
	BlockSize       int     // frames rendered per pipeline block
	SkipFade        int     // 20ms frames blended on skip
	Loop            bool    // restart the sequence after the last step
	PreviewDuration float64 // seconds

	// Rendering
	Workers int // voices of one step rendered in parallel

	// Encoders
	OpusBitrate int
	MP3Bitrate  string

	// Logging
	LogLevel  string // logrus level name
	LogFormat string // text or json
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("ENTRAIN_PORT", 8080),

		SampleRate:      envInt("ENTRAIN_SAMPLE_RATE", 48000),
		BlockSize:       envInt("ENTRAIN_BLOCK_SIZE", 4800),
		SkipFade:        envInt("ENTRAIN_SKIP_FADE", 5),
		Loop:            envBool("ENTRAIN_LOOP", true),
		PreviewDuration: envFloat("ENTRAIN_PREVIEW_DURATION", 30),

		Workers: envInt("ENTRAIN_WORKERS", 4),

		OpusBitrate: envInt("ENTRAIN_OPUS_BITRATE", 128000),
		MP3Bitrate:  envStr("ENTRAIN_MP3_BITRATE", "192k"),

		LogLevel:  envStr("ENTRAIN_LOG_LEVEL", "info"),
		LogFormat: envStr("ENTRAIN_LOG_FORMAT", "text"),
	}
}

// ConfigureLogging applies the level and format to the standard logrus logger.
// An unknown level falls back to info.
func (c Config) ConfigureLogging() {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		logrus.WithField("level", c.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
