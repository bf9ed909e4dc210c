package dto

// ── 论文状态模块 DTO ──

// SetManuscriptStatusRequest 导师直接修改论文状态
type SetManuscriptStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=none RevisionByAdvisor ReadyToDefend"`
}

// ManuscriptStatusResponse 论文状态
type ManuscriptStatusResponse struct {
	Status string `json:"status"`
}

// CastVoteRequest 答辩委员投票请求
type CastVoteRequest struct {
	Target string `json:"target" binding:"required,oneof=RevisionByPanel ApprovedByPanel"`
}

// VoteResultResponse 投票结果（被拒绝时同样返回剩余票数）
type VoteResultResponse struct {
	Status         string `json:"status"`
	Target         string `json:"target"`
	Votes          int    `json:"votes"`
	Threshold      int    `json:"threshold"`
	RemainingVotes int    `json:"remaining_votes"`
	Transitioned   bool   `json:"transitioned"`
}

// VoteSetResponse 单个目标状态的票集合
type VoteSetResponse struct {
	Target    string   `json:"target"`
	Threshold int      `json:"threshold"`
	Remaining int      `json:"remaining"`
	Voters    []string `json:"voters"`
}

// VoteTallyResponse 投票统计
type VoteTallyResponse struct {
	Status   string          `json:"status"`
	Revision VoteSetResponse `json:"revision"`
	Approval VoteSetResponse `json:"approval"`
}
