package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"thesis-hub/backend/config"
)

// Client Redis 客户端封装
// 用于同义词查询缓存与投票接口限流
type Client struct {
	rdb    goredis.UniversalClient
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// NewFromUniversal 包装已有客户端（测试或集群模式）
func NewFromUniversal(rdb goredis.UniversalClient, logger *zap.Logger) *Client {
	return &Client{rdb: rdb, logger: logger}
}

// ── 同义词缓存 ──

const synonymPrefix = "synonym:term:"

// GetSynonyms 批量读取词条的同义词缓存，仅返回命中的词条
func (c *Client) GetSynonyms(ctx context.Context, terms []string) (map[string][]string, error) {
	hits := make(map[string][]string)
	if len(terms) == 0 {
		return hits, nil
	}

	keys := make([]string, len(terms))
	for i, t := range terms {
		keys[i] = synonymPrefix + t
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var synonyms []string
		if err := json.Unmarshal([]byte(s), &synonyms); err != nil {
			c.logger.Warn("同义词缓存内容损坏", zap.String("term", terms[i]), zap.Error(err))
			continue
		}
		hits[terms[i]] = synonyms
	}
	return hits, nil
}

// SetSynonyms 写入词条的同义词缓存（空结果同样缓存，避免穿透）
func (c *Client) SetSynonyms(ctx context.Context, entries map[string][]string, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}

	pipe := c.rdb.Pipeline()
	for term, synonyms := range entries {
		if synonyms == nil {
			synonyms = []string{}
		}
		b, err := json.Marshal(synonyms)
		if err != nil {
			return err
		}
		pipe.Set(ctx, synonymPrefix+term, b, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateSynonyms 同义词表变更后删除相关词条缓存
func (c *Client) InvalidateSynonyms(ctx context.Context, terms []string) error {
	if len(terms) == 0 {
		return nil
	}
	keys := make([]string, len(terms))
	for i, t := range terms {
		keys[i] = synonymPrefix + t
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ── 限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数
// 返回 true 表示本次请求允许通过
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).UnixNano()

	pipe := c.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
	pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	card := pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return card.Val() <= int64(limit), nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
