package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full application configuration.
type Config struct {
	Room    RoomConfig
	User    UserConfig
	Board   BoardConfig
	Journal JournalConfig
	Debug   DebugConfig
}

// RoomConfig identifies the room session to join.
type RoomConfig struct {
	UUID   string
	Token  string
	Region string
}

// UserConfig identifies the local participant.
type UserConfig struct {
	UID     string
	Name    string
	IsOwner bool
}

// BoardConfig tunes the adapter itself.
type BoardConfig struct {
	PreloadDebounce time.Duration
	DeviceClass     string // empty = autodetect
}

// JournalConfig configures the local session-event journal.
type JournalConfig struct {
	Enabled bool
	Path    string
}

// DebugConfig configures the optional dev state server.
type DebugConfig struct {
	Enabled bool
	Addr    string
}

// Load reads configuration from the environment, with .env support.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	return &Config{
		Room: RoomConfig{
			UUID:   getEnv("BOARD_ROOM_UUID", ""),
			Token:  getEnv("BOARD_ROOM_TOKEN", ""),
			Region: getEnv("BOARD_ROOM_REGION", ""),
		},
		User: UserConfig{
			UID:     getEnv("BOARD_USER_UID", ""),
			Name:    getEnv("BOARD_USER_NAME", ""),
			IsOwner: getBool("BOARD_USER_IS_OWNER", false),
		},
		Board: BoardConfig{
			PreloadDebounce: getDuration("BOARD_PRELOAD_DEBOUNCE", 2*time.Second),
			DeviceClass:     getEnv("BOARD_DEVICE_CLASS", ""),
		},
		Journal: JournalConfig{
			Enabled: getBool("BOARD_JOURNAL_ENABLED", true),
			Path:    getEnv("BOARD_JOURNAL_PATH", "boardsync.db"),
		},
		Debug: DebugConfig{
			Enabled: getBool("BOARD_DEBUG_ENABLED", false),
			Addr:    getEnv("BOARD_DEBUG_ADDR", ":9090"),
		},
	}
}

// getEnv reads an environment variable with a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBool reads a boolean environment variable.
func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

// getDuration reads a duration environment variable. Bare numbers are
// treated as seconds.
func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if !strings.ContainsAny(value, "smh") {
			if secs, err := strconv.Atoi(value); err == nil {
				return time.Duration(secs) * time.Second
			}
		}
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
