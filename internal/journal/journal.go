// Package journal persists session state transitions to a local sqlite
// file. It exists for post-mortem debugging: when a session misbehaves,
// the journal shows the order the observable fields actually moved in.
package journal

import (
	"fmt"
	"strconv"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"boardsync/internal/board"
	"boardsync/internal/engine"
)

// Entry is one recorded state transition.
type Entry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"not null;index:idx_session_created" json:"session_id"`
	RoomUUID  string    `gorm:"not null" json:"room_uuid"`
	Field     string    `gorm:"not null" json:"field"`
	Value     string    `gorm:"not null" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_session_created" json:"created_at"`
}

func (Entry) TableName() string {
	return "journal_entries"
}

// Journal is an append-only transition log backed by sqlite.
type Journal struct {
	db *gorm.DB
}

// Open opens (or creates) the journal database at path. ":memory:" gives
// an ephemeral journal.
func Open(path string) (*Journal, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}

	return &Journal{db: db}, nil
}

// Record appends one transition.
func (j *Journal) Record(sessionID, roomUUID, field, value string) error {
	entry := Entry{
		SessionID: sessionID,
		RoomUUID:  roomUUID,
		Field:     field,
		Value:     value,
	}
	if err := j.db.Create(&entry).Error; err != nil {
		return fmt.Errorf("journal: record %s=%s: %w", field, value, err)
	}
	return nil
}

// Recent returns the newest entries for a session, newest first.
func (j *Journal) Recent(sessionID string, limit int) ([]Entry, error) {
	var entries []Entry
	err := j.db.
		Where("session_id = ?", sessionID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("journal: recent for %s: %w", sessionID, err)
	}
	return entries, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return fmt.Errorf("journal: get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Attach subscribes to every observable field of the board and records
// each transition. The returned function detaches all subscriptions.
// Recording failures are swallowed; the journal never disturbs the
// session it observes.
func (j *Journal) Attach(b *board.Board) func() {
	sid, room := b.SessionID, b.RoomUUID()
	put := func(field, value string) {
		_ = j.Record(sid, room, field, value)
	}

	cancels := []func(){
		b.Phase.Subscribe(func(p engine.Phase) { put("phase", p.String()) }),
		b.ViewMode.Subscribe(func(m engine.ViewMode) { put("viewMode", string(m)) }),
		b.Writable.Subscribe(func(v bool) { put("writable", strconv.FormatBool(v)) }),
		b.Pages.Subscribe(func(p board.PageState) {
			put("pages", fmt.Sprintf("%d/%d", p.Index, p.Count))
		}),
		b.Focused.Subscribe(func(v bool) { put("focused", strconv.FormatBool(v)) }),
		b.Maximized.Subscribe(func(v bool) { put("maximized", strconv.FormatBool(v)) }),
		b.Kicked.Subscribe(func(v bool) { put("kicked", strconv.FormatBool(v)) }),
	}

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}
