package service

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/model"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ── 匹配模块业务错误 ──

var (
	ErrNoMatchingAdvisors  = fmt.Errorf("%w: 没有研究方向匹配的导师", pkgerrors.ErrNoCandidates)
	ErrNoAvailableAdvisors = fmt.Errorf("%w: 匹配的导师名额均已满", pkgerrors.ErrNoCandidates)
)

// AdvisorMatch 候选导师及匹配度
type AdvisorMatch struct {
	Advisor                model.Advisor
	MatchPercentage        float64
	MatchedSpecializations []string
}

// AdvisorMatcher 按研究方向重合度为导师排序
type AdvisorMatcher interface {
	Rank(ctx context.Context, terms []string, declinedAdvisorIDs []string) ([]AdvisorMatch, error)
}

type advisorMatcher struct {
	repo   *repository.Repository
	cfg    *config.MatchingConfig
	logger *zap.Logger
}

// NewAdvisorMatcher 创建 AdvisorMatcher 实例
func NewAdvisorMatcher(cfg *config.MatchingConfig, repo *repository.Repository, logger *zap.Logger) AdvisorMatcher {
	return &advisorMatcher{repo: repo, cfg: cfg, logger: logger}
}

// ────────────────────── Rank ──────────────────────

func (m *advisorMatcher) Rank(ctx context.Context, terms []string, declinedAdvisorIDs []string) ([]AdvisorMatch, error) {
	advisors, err := m.repo.Advisor.ListApproved(ctx)
	if err != nil {
		m.logger.Error("查询导师列表失败", zap.Error(err))
		return nil, err
	}

	declined := make(map[string]struct{}, len(declinedAdvisorIDs))
	for _, id := range declinedAdvisorIDs {
		declined[id] = struct{}{}
	}

	// 1. 研究方向命中且未拒绝过该学生
	matched := matchAdvisors(advisors, compileTermPatterns(terms), func(a *model.Advisor) bool {
		_, ok := declined[a.AdvisorID]
		return ok
	})
	if len(matched) == 0 {
		return nil, ErrNoMatchingAdvisors
	}

	// 2. 名额过滤（未设置名额视为不限）
	available := matched[:0:0]
	for _, am := range matched {
		if am.Advisor.HasCapacity() {
			available = append(available, am)
		}
	}
	if len(available) == 0 {
		return nil, ErrNoAvailableAdvisors
	}

	// 3. 匹配度
	for i := range available {
		available[i].MatchPercentage = m.percentage(&available[i], len(terms))
	}

	// 4. 稳定排序，同分保持枚举顺序
	sort.SliceStable(available, func(i, j int) bool {
		return available[i].MatchPercentage > available[j].MatchPercentage
	})

	// 5. 截取前 N 个
	if limit := m.cfg.MaxCandidates; limit > 0 && len(available) > limit {
		available = available[:limit]
	}
	return available, nil
}

// percentage 命中的研究方向数 / 口径基数 × 100，保留两位小数，上限 100
func (m *advisorMatcher) percentage(am *AdvisorMatch, termCount int) float64 {
	basis := len(am.Advisor.Specializations)
	if m.cfg.PercentageBasis == config.PercentageBasisTerms {
		basis = termCount
	}
	if basis == 0 {
		return 0
	}
	p := float64(len(am.MatchedSpecializations)) / float64(basis) * 100
	if p > 100 {
		p = 100
	}
	return math.Round(p*100) / 100
}

// ── 研究方向匹配 ──

// compileTermPatterns 每个检索词转义后编译为忽略大小写、按字母数字边界匹配的正则
func compileTermPatterns(terms []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(terms))
	for _, t := range terms {
		if t == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile(
			`(?i)(?:^|[^\p{L}\p{N}])`+regexp.QuoteMeta(t)+`(?:$|[^\p{L}\p{N}])`,
		))
	}
	return patterns
}

// matchedSpecializations 返回命中任一检索词的研究方向
func matchedSpecializations(specializations []string, patterns []*regexp.Regexp) []string {
	var matched []string
	for _, spec := range specializations {
		for _, p := range patterns {
			if p.MatchString(spec) {
				matched = append(matched, spec)
				break
			}
		}
	}
	return matched
}

// matchAdvisors 按枚举顺序返回研究方向命中的导师，exclude 返回 true 的导师被跳过
func matchAdvisors(advisors []model.Advisor, patterns []*regexp.Regexp, exclude func(*model.Advisor) bool) []AdvisorMatch {
	var result []AdvisorMatch
	for i := range advisors {
		a := &advisors[i]
		if exclude != nil && exclude(a) {
			continue
		}
		specs := matchedSpecializations(a.Specializations, patterns)
		if len(specs) == 0 {
			continue
		}
		result = append(result, AdvisorMatch{Advisor: *a, MatchedSpecializations: specs})
	}
	return result
}
