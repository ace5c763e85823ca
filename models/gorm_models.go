package models

import (
	"time"
)

// GormPressRecord 按键记录表，与 migrations 中的 press_records 表结构一致
type GormPressRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RecordID  string `gorm:"uniqueIndex;not null;size:36"`
	Owner     string `gorm:"index;not null;size:255"`
	FromState string `gorm:"not null;size:32"`
	ToState   string `gorm:"not null;size:32"`
	Number    *int
	Message   string `gorm:"not null;default:''"`
	CreatedAt time.Time
}

func (GormPressRecord) TableName() string {
	return "press_records"
}

func (g GormPressRecord) ToRecord() PressRecord {
	return PressRecord{
		ID:        g.RecordID,
		Owner:     g.Owner,
		FromState: g.FromState,
		ToState:   g.ToState,
		Number:    g.Number,
		Message:   g.Message,
		CreatedAt: g.CreatedAt,
	}
}

func FromRecord(r PressRecord) GormPressRecord {
	return GormPressRecord{
		RecordID:  r.ID,
		Owner:     r.Owner,
		FromState: r.FromState,
		ToState:   r.ToState,
		Number:    r.Number,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
}
