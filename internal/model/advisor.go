package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Advisor 导师表 — 对应 advisors
type Advisor struct {
	AdvisorID       string                      `gorm:"type:uuid;primaryKey"                   json:"advisor_id"`
	Name            string                      `gorm:"type:varchar(100);not null"             json:"name"`
	Email           string                      `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	Specializations datatypes.JSONSlice[string] `gorm:"not null"                               json:"specializations"`
	Role            string                      `gorm:"type:varchar(32)"                       json:"role,omitempty"` // SubjectExpert | Statistician | TechnicalExpert
	Capacity        *int                        `json:"capacity,omitempty"`                                           // nil 表示不限名额
	AcceptedCount   int                         `gorm:"not null;default:0"                     json:"accepted_count"`
	IsApproved      bool                        `gorm:"not null"                               json:"is_approved"`
	VersionedModel

	// 关联
	AcceptedStudents []AdvisorAcceptedStudent `gorm:"foreignKey:AdvisorID;references:AdvisorID" json:"accepted_students,omitempty"`
}

// TableName 指定表名
func (Advisor) TableName() string { return "advisors" }

// BeforeCreate 生成主键
func (a *Advisor) BeforeCreate(_ *gorm.DB) error {
	ensureID(&a.AdvisorID)
	if a.Version == 0 {
		a.Version = 1
	}
	if a.Specializations == nil {
		a.Specializations = datatypes.JSONSlice[string]{}
	}
	return nil
}

// HasCapacity 是否还有剩余名额（未设置名额视为不限）
func (a *Advisor) HasCapacity() bool {
	return a.Capacity == nil || a.AcceptedCount < *a.Capacity
}

// AdvisorAcceptedStudent 导师已接收学生 — 对应 advisor_accepted_students
type AdvisorAcceptedStudent struct {
	AdvisorID  string    `gorm:"type:uuid;primaryKey"               json:"advisor_id"`
	StudentID  string    `gorm:"type:uuid;primaryKey"               json:"student_id"`
	AcceptedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"accepted_at"`
}

func (AdvisorAcceptedStudent) TableName() string { return "advisor_accepted_students" }
