package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecurringTask is a template that implies repeated occurrences on a
// daily/weekly/monthly cadence. Exactly one of WeekDay/MonthDay is set,
// matching Frequency; both are nil for daily templates.
type RecurringTask struct {
	ID        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Title     string
	Time      *string
	ClientID  *string `gorm:"index"`
	ProjectID *string `gorm:"index"`
	Frequency string  `gorm:"index"`
	WeekDay   *int
	MonthDay  *int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *RecurringTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// RecurringTaskRow is a RecurringTask with client/project display
// columns joined in, mirroring what list views render.
type RecurringTaskRow struct {
	RecurringTask
	ClientName  *string
	ClientEmoji *string
	ProjectName *string
}
