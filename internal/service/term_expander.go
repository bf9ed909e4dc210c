package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"thesis-hub/backend/config"
	"thesis-hub/backend/internal/repository"
	pkgerrors "thesis-hub/backend/pkg/errors"
)

// ErrExpansionTooDeep 同义词链超过 max_expansion_rounds，通常意味着同义词表配置异常
var ErrExpansionTooDeep = fmt.Errorf("%w: 同义词扩展轮数超出上限", pkgerrors.ErrPrecondition)

// SynonymCache 同义词查询缓存（pkg/redis.Client 实现）
type SynonymCache interface {
	GetSynonyms(ctx context.Context, terms []string) (map[string][]string, error)
	SetSynonyms(ctx context.Context, entries map[string][]string, ttl time.Duration) error
	InvalidateSynonyms(ctx context.Context, terms []string) error
}

// TermExpander 将自由文本扩展为检索词集合
type TermExpander interface {
	// Expand 返回小写、去重、排序后的检索词；无副作用，且 Expand(Expand(x)) == Expand(x)
	Expand(ctx context.Context, fragments []string) ([]string, error)
}

type termExpander struct {
	repo   *repository.Repository
	cache  SynonymCache
	cfg    *config.MatchingConfig
	logger *zap.Logger
}

// NewTermExpander 创建 TermExpander 实例，cache 可为 nil
func NewTermExpander(cfg *config.MatchingConfig, repo *repository.Repository, cache SynonymCache, logger *zap.Logger) TermExpander {
	return &termExpander{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// ────────────────────── Expand ──────────────────────

// Expand 输出 = 全部单词 + 不超过 max_phrase_words 的整段片段 + 命中同义词表的短语 + 同义词（递归处理）
// 一直扩展到没有新词条需要查表为止；max_expansion_rounds 只是防护上限，超出时报错而不是截断
func (e *termExpander) Expand(ctx context.Context, fragments []string) ([]string, error) {
	maxWords := e.cfg.MaxPhraseWords
	if maxWords < 1 {
		maxWords = 1
	}
	rounds := e.cfg.MaxExpansionRounds
	if rounds < 1 {
		rounds = 1
	}

	out := make(map[string]struct{})
	looked := make(map[string]struct{})
	pending := fragments

	for round := 0; len(pending) > 0; round++ {
		var lookups, phrases []string
		for _, f := range pending {
			words := tokenize(f)
			if len(words) == 0 {
				continue
			}
			for _, w := range words {
				out[w] = struct{}{}
			}
			if len(words) <= maxWords {
				out[strings.Join(words, " ")] = struct{}{}
			}
			for _, t := range candidateTerms(words, maxWords) {
				if _, ok := looked[t]; ok {
					continue
				}
				looked[t] = struct{}{}
				lookups = append(lookups, t)
				if strings.Contains(t, " ") {
					phrases = append(phrases, t)
				}
			}
		}

		if len(lookups) == 0 {
			break
		}
		if round >= rounds {
			e.logger.Warn("同义词扩展轮数超出上限",
				zap.Int("max_rounds", rounds),
				zap.Strings("pending", lookups),
			)
			return nil, ErrExpansionTooDeep
		}

		found, err := e.lookup(ctx, lookups)
		if err != nil {
			return nil, err
		}
		for _, p := range phrases {
			if len(found[p]) > 0 {
				out[p] = struct{}{}
			}
		}

		pending = pending[:0:0]
		for _, t := range lookups {
			pending = append(pending, found[t]...)
		}
	}

	terms := make([]string, 0, len(out))
	for t := range out {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	return terms, nil
}

// lookup 查询每个词条的同义词，先查缓存再查库；缓存异常时降级为直接查库
func (e *termExpander) lookup(ctx context.Context, terms []string) (map[string][]string, error) {
	result := make(map[string][]string, len(terms))
	if len(terms) == 0 {
		return result, nil
	}

	missing := terms
	if e.cache != nil {
		cached, err := e.cache.GetSynonyms(ctx, terms)
		if err != nil {
			e.logger.Warn("读取同义词缓存失败，降级查库", zap.Error(err))
		} else {
			missing = missing[:0:0]
			for _, t := range terms {
				if s, ok := cached[t]; ok {
					result[t] = s
					continue
				}
				missing = append(missing, t)
			}
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	entries, err := e.repo.Synonym.FindByTerms(ctx, missing)
	if err != nil {
		e.logger.Error("查询同义词表失败", zap.Strings("terms", missing), zap.Error(err))
		return nil, err
	}

	fresh := make(map[string][]string, len(missing))
	for _, t := range missing {
		fresh[t] = nil
	}
	for _, entry := range entries {
		for _, term := range entry.Terms {
			key := normalizeTerm(term)
			if _, ok := fresh[key]; !ok {
				continue
			}
			fresh[key] = appendUnique(fresh[key], entry.Synonyms...)
		}
	}
	for t, s := range fresh {
		result[t] = s
	}

	if e.cache != nil {
		if err := e.cache.SetSynonyms(ctx, fresh, e.cfg.SynonymCacheTTL); err != nil {
			e.logger.Warn("写入同义词缓存失败", zap.Error(err))
		}
	}
	return result, nil
}

// ── 分词 ──

// tokenize 小写并按空白切分，去掉词两端的标点
func tokenize(fragment string) []string {
	fields := strings.Fields(strings.ToLower(fragment))
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// normalizeTerm 词条规范形式：分词后以单个空格拼接
func normalizeTerm(term string) string {
	return strings.Join(tokenize(term), " ")
}

// candidateTerms 单词及 2..maxWords 个连续单词组成的短语
func candidateTerms(words []string, maxWords int) []string {
	terms := make([]string, 0, len(words)*maxWords)
	for n := 1; n <= maxWords; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		exists := false
		for _, d := range dst {
			if d == v {
				exists = true
				break
			}
		}
		if !exists {
			dst = append(dst, v)
		}
	}
	return dst
}
