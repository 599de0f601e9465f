package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
)

type SweetGormRepository struct {
	db *gorm.DB
}

// DI
func NewSweetGormRepository(db *gorm.DB) *SweetGormRepository {
	return &SweetGormRepository{db: db}
}

// IDで取得
func (r *SweetGormRepository) FindByID(ctx context.Context, id string) (model.Sweet, error) {
	var s model.Sweet
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Sweet{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Sweet{}, pkgerrors.Wrap(err, "find sweet")
	}
	return s, nil
}

// 新規作成
func (r *SweetGormRepository) Create(ctx context.Context, s model.Sweet) (model.Sweet, error) {
	if err := r.db.WithContext(ctx).Create(&s).Error; err != nil {
		return model.Sweet{}, pkgerrors.Wrap(err, "create sweet")
	}
	return s, nil
}

// ConditionalUpdate はversionが読み出し時のままのときだけ書き込む。
// WHERE id AND version の1文なので、割り込まれた書き込みは必ず0行になる。
func (r *SweetGormRepository) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, changes repo.SweetChanges) (model.Sweet, error) {
	updates := map[string]interface{}{
		"version":    gorm.Expr("version + 1"),
		"updated_at": time.Now(),
	}
	if changes.Name != nil {
		updates["name"] = *changes.Name
	}
	if changes.Category != nil {
		updates["category"] = *changes.Category
	}
	if changes.Price != nil {
		updates["price"] = *changes.Price
	}
	if changes.Quantity != nil {
		updates["quantity"] = *changes.Quantity
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.ImageURL != nil {
		updates["image_url"] = *changes.ImageURL
	}

	res := r.db.WithContext(ctx).
		Model(&model.Sweet{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return model.Sweet{}, pkgerrors.Wrap(res.Error, "conditional update sweet")
	}

	// 0行は「消えた」か「versionがずれた」かのどちらか
	if res.RowsAffected == 0 {
		var exists model.Sweet
		err := r.db.WithContext(ctx).Select("id").First(&exists, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Sweet{}, repo.ErrNotFound
		}
		if err != nil {
			return model.Sweet{}, pkgerrors.Wrap(err, "recheck sweet")
		}
		return model.Sweet{}, repo.ErrVersionConflict
	}

	var updated model.Sweet
	if err := r.db.WithContext(ctx).First(&updated, "id = ?", id).Error; err != nil {
		return model.Sweet{}, pkgerrors.Wrap(err, "reload sweet")
	}
	return updated, nil
}

// 物理削除
func (r *SweetGormRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&model.Sweet{}, "id = ?", id)
	if res.Error != nil {
		return pkgerrors.Wrap(res.Error, "delete sweet")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// Query は条件つき一覧。新しい順で返し、条件に合う総件数も返す。
func (r *SweetGormRepository) Query(ctx context.Context, q repo.SweetQuery) ([]model.Sweet, int64, error) {
	var sweets []model.Sweet
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.Sweet{})

	if strings.TrimSpace(q.Name) != "" {
		like := "%" + strings.TrimSpace(q.Name) + "%"
		tx = tx.Where("name ILIKE ?", like)
	}
	if q.Category != "" {
		tx = tx.Where("category = ?", q.Category)
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", *q.MaxPrice)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.Sweet{}, 0, pkgerrors.Wrap(err, "count sweets")
	}

	tx = tx.Order("created_at desc").Order("id desc")
	if q.Skip > 0 {
		tx = tx.Offset(q.Skip)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	if err := tx.Find(&sweets).Error; err != nil {
		return []model.Sweet{}, 0, pkgerrors.Wrap(err, "query sweets")
	}
	return sweets, total, nil
}
