package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 2*time.Second, cfg.Board.PreloadDebounce)
	assert.True(t, cfg.Journal.Enabled)
	assert.Equal(t, ":9090", cfg.Debug.Addr)
	assert.False(t, cfg.Debug.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("BOARD_ROOM_UUID", "room-7")
	t.Setenv("BOARD_ROOM_TOKEN", "tok")
	t.Setenv("BOARD_USER_UID", "u-1")
	t.Setenv("BOARD_USER_IS_OWNER", "true")
	t.Setenv("BOARD_PRELOAD_DEBOUNCE", "5")

	cfg := Load()

	assert.Equal(t, "room-7", cfg.Room.UUID)
	assert.Equal(t, "tok", cfg.Room.Token)
	assert.Equal(t, "u-1", cfg.User.UID)
	assert.True(t, cfg.User.IsOwner)
	assert.Equal(t, 5*time.Second, cfg.Board.PreloadDebounce)
}

func TestGetDurationParsesUnits(t *testing.T) {
	t.Setenv("BOARD_PRELOAD_DEBOUNCE", "1500ms")

	cfg := Load()
	assert.Equal(t, 1500*time.Millisecond, cfg.Board.PreloadDebounce)
}
