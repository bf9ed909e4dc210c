package dto

// ── 学生模块 DTO ──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	Name  string `json:"name"  binding:"required,min=2,max=100"`
	Email string `json:"email" binding:"required,email"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	ChosenAdvisor      *AdvisorBrief      `json:"chosen_advisor,omitempty"`
	AdvisorStatus      string             `json:"advisor_status"`
	ManuscriptStatus   string             `json:"manuscript_status"`
	DeclinedAdvisorIDs []string           `json:"declined_advisor_ids"`
	Panelists          []PanelistResponse `json:"panelists"`
	PanelAssignedAt    string             `json:"panel_assigned_at,omitempty"`
	CreatedAt          string             `json:"created_at"`
}

// PanelistResponse 答辩委员
type PanelistResponse struct {
	AdvisorID  string `json:"advisor_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsFallback bool   `json:"is_fallback"`
}

// ── 选择导师 / 导师答复 ──

// ChooseAdvisorRequest 学生选择导师请求
type ChooseAdvisorRequest struct {
	AdvisorID string `json:"advisor_id" binding:"required"`
}

// ChooseAdvisorResponse 选择导师响应（委员为预览，导师接收后才落库）
type ChooseAdvisorResponse struct {
	Advisor   AdvisorResponse    `json:"advisor"`
	Panelists []PanelistResponse `json:"panelists"`
}

// 导师答复
const (
	DecisionAccepted = "accepted"
	DecisionDeclined = "declined"
)

// RespondRequest 导师答复请求
type RespondRequest struct {
	Decision string `json:"decision" binding:"required,oneof=accepted declined"`
}
