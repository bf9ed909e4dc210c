package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"thesis-hub/backend/internal/dto"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ── 同义词模块业务错误 ──

var (
	ErrSynonymNotFound   = fmt.Errorf("%w: 同义词条目不存在", pkgerrors.ErrNotFound)
	ErrSynonymEmptyTerms = fmt.Errorf("%w: 词条与同义词不能为空", pkgerrors.ErrPrecondition)
)

// SynonymService 同义词表维护
type SynonymService interface {
	Create(ctx context.Context, req *dto.CreateSynonymRequest, callerID string) (*dto.SynonymResponse, error)
	List(ctx context.Context, req *dto.SynonymListRequest) ([]dto.SynonymResponse, int64, error)
	Delete(ctx context.Context, id string) error
	Expand(ctx context.Context, q string) (*dto.ExpandResponse, error)
}

type synonymService struct {
	repo     *repository.Repository
	cache    SynonymCache
	expander TermExpander
	logger   *zap.Logger
}

// NewSynonymService 创建 SynonymService 实例，cache 可为 nil
func NewSynonymService(repo *repository.Repository, cache SynonymCache, expander TermExpander, logger *zap.Logger) SynonymService {
	return &synonymService{repo: repo, cache: cache, expander: expander, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *synonymService) Create(ctx context.Context, req *dto.CreateSynonymRequest, callerID string) (*dto.SynonymResponse, error) {
	terms := normalizeTerms(req.Terms)
	synonyms := normalizeTerms(req.Synonyms)
	if len(terms) == 0 || len(synonyms) == 0 {
		return nil, ErrSynonymEmptyTerms
	}

	entry := &model.SynonymEntry{
		Terms:    datatypes.JSONSlice[string](terms),
		Synonyms: datatypes.JSONSlice[string](synonyms),
	}
	if callerID != "" {
		entry.CreatedBy = &callerID
	}

	if err := s.repo.Synonym.Create(ctx, entry); err != nil {
		s.logger.Error("创建同义词失败", zap.Error(err))
		return nil, err
	}

	// 缓存中可能存有这些词条的空结果
	s.invalidate(ctx, terms)

	return toSynonymResponse(entry), nil
}

// ────────────────────── List ──────────────────────

func (s *synonymService) List(ctx context.Context, req *dto.SynonymListRequest) ([]dto.SynonymResponse, int64, error) {
	entries, total, err := s.repo.Synonym.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出同义词失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SynonymResponse, 0, len(entries))
	for i := range entries {
		result = append(result, *toSynonymResponse(&entries[i]))
	}
	return result, total, nil
}

// ────────────────────── Delete ──────────────────────

func (s *synonymService) Delete(ctx context.Context, id string) error {
	entry, err := s.repo.Synonym.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSynonymNotFound
		}
		s.logger.Error("查询同义词失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Synonym.Delete(ctx, id); err != nil {
		s.logger.Error("删除同义词失败", zap.String("id", id), zap.Error(err))
		return err
	}

	s.invalidate(ctx, entry.Terms)
	return nil
}

// ────────────────────── Expand ──────────────────────

func (s *synonymService) Expand(ctx context.Context, q string) (*dto.ExpandResponse, error) {
	terms, err := s.expander.Expand(ctx, []string{q})
	if err != nil {
		return nil, err
	}
	return &dto.ExpandResponse{Terms: terms}, nil
}

func (s *synonymService) invalidate(ctx context.Context, terms []string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSynonyms(ctx, terms); err != nil {
		s.logger.Warn("清除同义词缓存失败", zap.Strings("terms", terms), zap.Error(err))
	}
}

// normalizeTerms 规范化并去重，保持输入顺序
func normalizeTerms(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		t := normalizeTerm(v)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		result = append(result, t)
	}
	return result
}

func toSynonymResponse(entry *model.SynonymEntry) *dto.SynonymResponse {
	return &dto.SynonymResponse{
		ID:       entry.EntryID,
		Terms:    []string(entry.Terms),
		Synonyms: []string(entry.Synonyms),
	}
}
