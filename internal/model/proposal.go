package model

import (
	"time"

	"gorm.io/gorm"
)

// Proposal 开题提交记录 — 对应 proposals（只追加，创建后不可修改）
type Proposal struct {
	ProposalID  string    `gorm:"type:uuid;primaryKey"               json:"proposal_id"`
	StudentID   string    `gorm:"type:uuid;not null;index"           json:"student_id"`
	Title       string    `gorm:"type:varchar(255);not null"         json:"title"`
	Text        string    `gorm:"type:text;not null"                 json:"text"`
	SubmittedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"submitted_at"`
}

func (Proposal) TableName() string { return "proposals" }

// BeforeCreate 生成主键与提交时间
func (p *Proposal) BeforeCreate(_ *gorm.DB) error {
	ensureID(&p.ProposalID)
	if p.SubmittedAt.IsZero() {
		p.SubmittedAt = time.Now()
	}
	return nil
}

// BeforeUpdate 开题记录不可修改
func (p *Proposal) BeforeUpdate(_ *gorm.DB) error {
	return ErrProposalImmutable
}
