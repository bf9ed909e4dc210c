package dto

// ── 导师模块 DTO ──

// CreateAdvisorRequest 创建导师请求
type CreateAdvisorRequest struct {
	Name            string   `json:"name"            binding:"required,min=2,max=100"`
	Email           string   `json:"email"           binding:"required,email"`
	Specializations []string `json:"specializations" binding:"required,min=1,dive,required,max=100"`
	Role            string   `json:"role"            binding:"omitempty,oneof=SubjectExpert Statistician TechnicalExpert"`
	Capacity        *int     `json:"capacity"        binding:"omitempty,min=0"`
	IsApproved      *bool    `json:"is_approved"`
}

// UpdateAdvisorRequest 更新导师请求（仅更新非 nil 字段）
type UpdateAdvisorRequest struct {
	Name            *string  `json:"name"            binding:"omitempty,min=2,max=100"`
	Specializations []string `json:"specializations" binding:"omitempty,min=1,dive,required,max=100"`
	Role            *string  `json:"role"            binding:"omitempty,oneof=SubjectExpert Statistician TechnicalExpert"`
	Capacity        *int     `json:"capacity"        binding:"omitempty,min=0"`
	ClearCapacity   bool     `json:"clear_capacity"` // true 时改为不限名额
	IsApproved      *bool    `json:"is_approved"`
}

// AdvisorListRequest 导师列表查询参数
type AdvisorListRequest struct {
	PaginationRequest
}

// AdvisorResponse 导师信息响应
type AdvisorResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Specializations []string `json:"specializations"`
	Role            string   `json:"role,omitempty"`
	Capacity        *int     `json:"capacity"`
	AcceptedCount   int      `json:"accepted_count"`
	IsApproved      bool     `json:"is_approved"`
}

// AdvisorBrief 导师简要信息
type AdvisorBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AdvisorMatchResponse 候选导师（按匹配度排序）
type AdvisorMatchResponse struct {
	AdvisorID              string   `json:"advisor_id"`
	Name                   string   `json:"name"`
	MatchPercentage        float64  `json:"match_percentage"`
	Specializations        []string `json:"specializations"`
	MatchedSpecializations []string `json:"matched_specializations"`
}

// ImportAdvisorResponse 批量导入导师响应
type ImportAdvisorResponse struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Errors  []ImportAdvisorError `json:"errors,omitempty"`
}

// ImportAdvisorError 导入错误详情
type ImportAdvisorError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
