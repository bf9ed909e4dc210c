package model

import "errors"

// ErrProposalImmutable 开题记录创建后禁止更新
var ErrProposalImmutable = errors.New("开题记录不可修改")
