package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"thesis-hub/backend/internal/model"
)

// SynonymRepository 同义词表数据访问接口
type SynonymRepository interface {
	// Create 写入条目并建立 term → entry 索引（terms 须已小写去重）
	Create(ctx context.Context, entry *model.SynonymEntry) error
	GetByID(ctx context.Context, id string) (*model.SynonymEntry, error)
	// FindByTerms 返回 terms 中任一词命中的全部条目
	FindByTerms(ctx context.Context, terms []string) ([]model.SynonymEntry, error)
	List(ctx context.Context, offset, limit int) ([]model.SynonymEntry, int64, error)
	Delete(ctx context.Context, id string) error
}

type synonymRepo struct {
	db *gorm.DB
}

// NewSynonymRepo 创建 SynonymRepository 实例
func NewSynonymRepo(db *gorm.DB) SynonymRepository {
	return &synonymRepo{db: db}
}

func (r *synonymRepo) Create(ctx context.Context, entry *model.SynonymEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if len(entry.Terms) == 0 {
			return nil
		}
		index := make([]model.SynonymTerm, 0, len(entry.Terms))
		for _, t := range entry.Terms {
			index = append(index, model.SynonymTerm{Term: t, EntryID: entry.EntryID})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&index).Error
	})
}

func (r *synonymRepo) GetByID(ctx context.Context, id string) (*model.SynonymEntry, error) {
	var entry model.SynonymEntry
	err := r.db.WithContext(ctx).
		Where("entry_id = ?", id).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *synonymRepo) FindByTerms(ctx context.Context, terms []string) ([]model.SynonymEntry, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	var entries []model.SynonymEntry
	err := r.db.WithContext(ctx).
		Where("entry_id IN (?)",
			r.db.Model(&model.SynonymTerm{}).Select("entry_id").Where("term IN ?", terms),
		).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *synonymRepo) List(ctx context.Context, offset, limit int) ([]model.SynonymEntry, int64, error) {
	var entries []model.SynonymEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&model.SynonymEntry{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *synonymRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", id).Delete(&model.SynonymTerm{}).Error; err != nil {
			return err
		}
		return tx.Where("entry_id = ?", id).Delete(&model.SynonymEntry{}).Error
	})
}
