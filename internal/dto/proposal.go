package dto

// ── 开题模块 DTO ──

// SubmitProposalRequest 提交开题请求
type SubmitProposalRequest struct {
	Title string `json:"title" binding:"required,max=255"`
	Text  string `json:"text"  binding:"required,max=20000"`
}

// ProposalResponse 开题记录
type ProposalResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	SubmittedAt string `json:"submitted_at"`
}

// SubmitProposalResponse 提交开题响应：记录本身 + 扩展词 + 候选导师
type SubmitProposalResponse struct {
	Proposal       ProposalResponse       `json:"proposal"`
	Terms          []string               `json:"terms"`
	RankedAdvisors []AdvisorMatchResponse `json:"ranked_advisors"`
}
