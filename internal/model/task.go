package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Task represents a single loggable unit of work. Time is a free-form
// duration string like "1.5h" or "30m"; CompletedAt is set only while
// Completed is true.
type Task struct {
	ID           string `gorm:"primaryKey"`
	UserID       string `gorm:"index"`
	Content      string
	Completed    bool `gorm:"default:false"`
	CompletedAt  *time.Time
	Time         *string
	ClientTagID  *string `gorm:"index"`
	ProjectTagID *string `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Joined tag info, populated by the tag joiner after fetch.
	// Never written back to the store.
	ClientTag  *ClientTagRow  `gorm:"-"`
	ProjectTag *ProjectTagRow `gorm:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// ClientTagRow is the per-task client projection used for display.
type ClientTagRow struct {
	TaskID string
	ID     string
	Name   string
	Emoji  string
	Color  string
	Tag    string
}

// ProjectTagRow is the per-task project projection used for display.
type ProjectTagRow struct {
	TaskID     string
	ID         string
	Name       string
	ClientName string
	Tag        string
}
