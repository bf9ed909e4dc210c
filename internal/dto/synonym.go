package dto

// ── 同义词模块 DTO ──

// CreateSynonymRequest 创建同义词条目
type CreateSynonymRequest struct {
	Terms    []string `json:"terms"    binding:"required,min=1,dive,required,max=100"`
	Synonyms []string `json:"synonyms" binding:"required,min=1,dive,required,max=100"`
}

// SynonymListRequest 同义词列表查询参数
type SynonymListRequest struct {
	PaginationRequest
}

// SynonymResponse 同义词条目
type SynonymResponse struct {
	ID       string   `json:"id"`
	Terms    []string `json:"terms"`
	Synonyms []string `json:"synonyms"`
}

// ExpandRequest 扩展预览请求
type ExpandRequest struct {
	Q string `form:"q" binding:"required,max=2000"`
}

// ExpandResponse 扩展预览结果
type ExpandResponse struct {
	Terms []string `json:"terms"`
}
