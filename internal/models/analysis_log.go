package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AnalysisStatusScored   = "scored"
	AnalysisStatusDegraded = "degraded" // oracle failed, sentinel stored
	AnalysisStatusSkipped  = "skipped"  // already scored by a concurrent run
)

// AnalysisLog archives one raw oracle exchange for later inspection.
type AnalysisLog struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	JobID    string             `bson:"job_id" json:"job_id"`
	ResumeID string             `bson:"resume_id" json:"resume_id"`
	UserID   string             `bson:"user_id" json:"user_id"`

	RawResponse string `bson:"raw_response" json:"raw_response"`
	Attempts    int    `bson:"attempts" json:"attempts"`
	Status      string `bson:"status" json:"status"`
	Score       int    `bson:"score" json:"score"`

	ProcessingTimeMS int64     `bson:"processing_time_ms" json:"processing_time_ms"`
	Timestamp        time.Time `bson:"timestamp" json:"timestamp"`

	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"` // for TTL index
}

// ProgressEvent is published while a batch analysis runs.
type ProgressEvent struct {
	Type      string    `json:"type"` // started|resume_scored|completed|failed
	JobID     string    `json:"job_id"`
	ResumeID  string    `json:"resume_id,omitempty"`
	Score     *int      `json:"score,omitempty"`
	Processed int       `json:"processed"`
	Total     int       `json:"total"`
	Timestamp time.Time `json:"timestamp"`
}
