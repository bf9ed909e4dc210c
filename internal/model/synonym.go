package model

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SynonymEntry 同义词条目 — 对应 synonym_entries（多对多扩展表）
type SynonymEntry struct {
	EntryID  string                      `gorm:"type:uuid;primaryKey" json:"entry_id"`
	Terms    datatypes.JSONSlice[string] `gorm:"not null"             json:"terms"`
	Synonyms datatypes.JSONSlice[string] `gorm:"not null"             json:"synonyms"`
	BaseModel
}

func (SynonymEntry) TableName() string { return "synonym_entries" }

// BeforeCreate 生成主键
func (e *SynonymEntry) BeforeCreate(_ *gorm.DB) error {
	ensureID(&e.EntryID)
	return nil
}

// SynonymTerm 同义词检索索引 — 对应 synonym_terms（term 统一小写）
type SynonymTerm struct {
	Term    string `gorm:"type:varchar(255);primaryKey"`
	EntryID string `gorm:"type:uuid;primaryKey;index"`
}

func (SynonymTerm) TableName() string { return "synonym_terms" }
