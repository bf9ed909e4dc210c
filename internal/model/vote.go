package model

import "time"

// ManuscriptVote 答辩委员投票 — 对应 manuscript_votes
// (student_id, target_status, voter_id) 唯一，保证同一投票人对同一目标状态只计一票
type ManuscriptVote struct {
	StudentID    string    `gorm:"type:uuid;primaryKey"               json:"student_id"`
	TargetStatus string    `gorm:"type:varchar(32);primaryKey"        json:"target_status"` // RevisionByPanel | ApprovedByPanel
	VoterID      string    `gorm:"type:uuid;primaryKey"               json:"voter_id"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ManuscriptVote) TableName() string { return "manuscript_votes" }
