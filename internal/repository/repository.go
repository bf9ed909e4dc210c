package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Student  StudentRepository
	Advisor  AdvisorRepository
	Proposal ProposalRepository
	Synonym  SynonymRepository
	Vote     VoteRepository

	db *gorm.DB
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Student:  NewStudentRepo(db),
		Advisor:  NewAdvisorRepo(db),
		Proposal: NewProposalRepo(db),
		Synonym:  NewSynonymRepo(db),
		Vote:     NewVoteRepo(db),
		db:       db,
	}
}

// WithTx 在同一事务中执行 fn，fn 内部须使用传入的 txRepo
// 未绑定数据库（单元测试中的 mock 聚合）时直接以自身执行
func (r *Repository) WithTx(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
