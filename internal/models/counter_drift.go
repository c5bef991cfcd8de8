package models

import "time"

// CounterDrift records one correction of a cached counter (PostgreSQL)
type CounterDrift struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Path      string    `json:"path" gorm:"size:512;index"`
	Field     string    `json:"field" gorm:"size:64"`
	Cached    int64     `json:"cached"`
	Actual    int64     `json:"actual"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}
