package models

import "time"

// Resume is one uploaded candidate document under a job. Score stays nil until analyzed.
type Resume struct {
	ID       string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Filename string `gorm:"column:filename;type:text" json:"filename"`
	Content  string `gorm:"column:content;type:text" json:"-"`
	FilePath string `gorm:"column:file_path;type:text" json:"file_path,omitempty"`
	JobID    string `gorm:"column:job_id;type:uuid;index" json:"job_id"`
	UserID   string `gorm:"column:user_id;type:uuid;index" json:"user_id"`

	CandidateName *string `gorm:"column:candidate_name;type:text" json:"candidate_name"`
	Score         *int    `gorm:"column:match_score;type:integer" json:"score"`
	Summary       *string `gorm:"column:ai_analysis;type:text" json:"summary"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz" json:"created_at"`
}

func (Resume) TableName() string { return "resumes" }

func (r *Resume) Scored() bool { return r.Score != nil }

// Ranking is the read model served by /rankings and /export-csv.
type Ranking struct {
	ResumeID      string  `json:"resume_id"`
	Filename      string  `json:"filename"`
	CandidateName *string `json:"candidate_name"`
	Score         *int    `json:"score"`
	Summary       *string `json:"summary"`
}

// ScoreResult is the structured outcome of one oracle call.
type ScoreResult struct {
	Name    string `json:"name"`
	Score   int    `json:"score"`
	Summary string `json:"summary"`
}
