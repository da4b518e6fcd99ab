package models

import "time"

type Job struct {
	ID           string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Title        string    `gorm:"column:job_title;type:text" json:"title"`
	Tag          string    `gorm:"column:job_tag;type:text;uniqueIndex" json:"tag"`
	Requirements string    `gorm:"column:requirements;type:text" json:"requirements"`
	UserID       string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	CreatedAt    time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Job) TableName() string { return "jobs" }
