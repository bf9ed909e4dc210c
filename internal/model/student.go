package model

import (
	"time"

	"gorm.io/gorm"
)

// 导师申请状态
const (
	AdvisorStatusNone     = "none"
	AdvisorStatusPending  = "pending"
	AdvisorStatusAccepted = "accepted"
	AdvisorStatusDeclined = "declined"
)

// 论文状态
const (
	ManuscriptStatusNone              = "none"
	ManuscriptStatusRevisionByAdvisor = "RevisionByAdvisor"
	ManuscriptStatusReadyToDefend     = "ReadyToDefend"
	ManuscriptStatusRevisionByPanel   = "RevisionByPanel"
	ManuscriptStatusApprovedByPanel   = "ApprovedByPanel"
)

// Student 学生表 — 对应 students
type Student struct {
	StudentID        string     `gorm:"type:uuid;primaryKey"                                json:"student_id"`
	Name             string     `gorm:"type:varchar(100);not null"                          json:"name"`
	Email            string     `gorm:"type:varchar(255);not null;uniqueIndex"              json:"email"`
	ChosenAdvisorID  *string    `gorm:"type:uuid"                                           json:"chosen_advisor_id,omitempty"`
	AdvisorStatus    string     `gorm:"type:varchar(20);not null;default:'none'"            json:"advisor_status"`   // none | pending | accepted | declined
	ManuscriptStatus string     `gorm:"type:varchar(32);not null;default:'none'"            json:"manuscript_status"` // none | RevisionByAdvisor | ReadyToDefend | RevisionByPanel | ApprovedByPanel
	PanelAssignedAt  *time.Time `json:"panel_assigned_at,omitempty"`
	VersionedModel

	// 关联
	ChosenAdvisor    *Advisor                 `gorm:"foreignKey:ChosenAdvisorID;references:AdvisorID" json:"chosen_advisor,omitempty"`
	DeclinedAdvisors []StudentDeclinedAdvisor `gorm:"foreignKey:StudentID;references:StudentID"       json:"declined_advisors,omitempty"`
	Panelists        []StudentPanelist        `gorm:"foreignKey:StudentID;references:StudentID"       json:"panelists,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// BeforeCreate 生成主键并填充初始状态
func (s *Student) BeforeCreate(_ *gorm.DB) error {
	ensureID(&s.StudentID)
	if s.Version == 0 {
		s.Version = 1
	}
	if s.AdvisorStatus == "" {
		s.AdvisorStatus = AdvisorStatusNone
	}
	if s.ManuscriptStatus == "" {
		s.ManuscriptStatus = ManuscriptStatusNone
	}
	return nil
}

// DeclinedAdvisorIDs 返回已拒绝该学生的导师 ID 列表
func (s *Student) DeclinedAdvisorIDs() []string {
	ids := make([]string, 0, len(s.DeclinedAdvisors))
	for _, d := range s.DeclinedAdvisors {
		ids = append(ids, d.AdvisorID)
	}
	return ids
}

// HasDeclined 判断导师是否曾拒绝该学生
func (s *Student) HasDeclined(advisorID string) bool {
	for _, d := range s.DeclinedAdvisors {
		if d.AdvisorID == advisorID {
			return true
		}
	}
	return false
}

// IsPanelist 判断导师是否为该学生的答辩委员
func (s *Student) IsPanelist(advisorID string) bool {
	for _, p := range s.Panelists {
		if p.AdvisorID == advisorID {
			return true
		}
	}
	return false
}

// StudentDeclinedAdvisor 学生被拒记录 — 对应 student_declined_advisors（只增不删）
type StudentDeclinedAdvisor struct {
	StudentID  string    `gorm:"type:uuid;primaryKey"               json:"student_id"`
	AdvisorID  string    `gorm:"type:uuid;primaryKey"               json:"advisor_id"`
	DeclinedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"declined_at"`
}

func (StudentDeclinedAdvisor) TableName() string { return "student_declined_advisors" }

// 答辩委员角色
const (
	PanelRoleSubjectExpert   = "SubjectExpert"
	PanelRoleStatistician    = "Statistician"
	PanelRoleTechnicalExpert = "TechnicalExpert"
)

// PanelRoles 答辩委员角色的填充顺序
var PanelRoles = []string{PanelRoleSubjectExpert, PanelRoleStatistician, PanelRoleTechnicalExpert}

// IsPanelRole 校验角色取值
func IsPanelRole(role string) bool {
	for _, r := range PanelRoles {
		if r == role {
			return true
		}
	}
	return false
}

// StudentPanelist 答辩委员表 — 对应 student_panelists
type StudentPanelist struct {
	StudentID  string    `gorm:"type:uuid;primaryKey"               json:"student_id"`
	AdvisorID  string    `gorm:"type:uuid;primaryKey"               json:"advisor_id"`
	Role       string    `gorm:"type:varchar(32);not null"          json:"role"`
	IsFallback bool      `gorm:"not null;default:false"             json:"is_fallback"` // 角色无人匹配时的补位委员
	Position   int       `gorm:"not null;default:0"                 json:"position"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// 关联
	Advisor *Advisor `gorm:"foreignKey:AdvisorID;references:AdvisorID" json:"advisor,omitempty"`
}

func (StudentPanelist) TableName() string { return "student_panelists" }
