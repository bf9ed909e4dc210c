package errors

import "errors"

// ── 错误分类 ──
// 业务错误以 fmt.Errorf("%w: ...", Kind) 的形式包装分类，
// Handler 层按分类映射 HTTP 状态码，测试按具体哨兵错误断言。

var (
	// ErrNotFound 资源不存在（学生/导师/同义词等）
	ErrNotFound = errors.New("资源不存在")
	// ErrPrecondition 前置条件不满足（已选导师、名额已满、重复投票等）
	ErrPrecondition = errors.New("前置条件不满足")
	// ErrNoCandidates 匹配结果为空
	ErrNoCandidates = errors.New("无匹配候选")
)

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrCapacityExceeded 导师名额条件更新未命中
var ErrCapacityExceeded = errors.New("导师名额已满")
