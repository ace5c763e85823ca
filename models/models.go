package models

import (
	"time"
)

// PressRecord 一次按键的记录
type PressRecord struct {
	ID        string    `json:"id" db:"record_id"`
	Owner     string    `json:"owner" db:"owner"` // session, table or "demo"
	FromState string    `json:"from_state" db:"from_state"`
	ToState   string    `json:"to_state" db:"to_state"`
	Number    *int      `json:"number" db:"number"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// History is the reply shape for history queries.
type History struct {
	Owner   string        `json:"owner"`
	Records []PressRecord `json:"records"`
}
