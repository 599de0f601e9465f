package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
)

// quantityを奪い合う書き込みが衝突したときの再試行上限。
const maxWriteAttempts = 3

// InventoryUsecase は quantity を変更する唯一の入口。
// 読み出し→判定→versionつき書き込みをワンセットで行い、
// 衝突したらサイクルごとやり直す。自前のキャッシュは持たない。
type InventoryUsecase struct {
	sweets repo.SweetRepository
}

// DI
func NewInventoryUsecase(sweets repo.SweetRepository) *InventoryUsecase {
	return &InventoryUsecase{sweets: sweets}
}

type PurchaseOutput struct {
	Sweet     model.Sweet
	Purchased int64
	Total     decimal.Decimal
}

// Purchase は在庫を qty 減らす。在庫が足りなければ減らさずに
// InsufficientStockError（残数つき）を返す。
func (u *InventoryUsecase) Purchase(ctx context.Context, sweetID string, qty int64) (PurchaseOutput, error) {
	var out PurchaseOutput

	// handlerで弾いている前提だが、ここでも必ず再チェックする
	if qty < 1 {
		return out, NewHTTPError(400, "Purchase quantity must be at least 1")
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		s, err := u.sweets.FindByID(ctx, sweetID)
		if errors.Is(err, repo.ErrNotFound) {
			return out, ErrSweetNotFound
		}
		if err != nil {
			return out, storeErr(err)
		}

		// 在庫0の既存商品は NotFound ではなく在庫不足
		if s.Quantity < qty {
			return out, &InsufficientStockError{Available: s.Quantity}
		}

		newQty := s.Quantity - qty
		updated, err := u.sweets.ConditionalUpdate(ctx, s.ID, s.Version, repo.SweetChanges{
			Quantity: &newQty,
		})
		if errors.Is(err, repo.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, repo.ErrNotFound) {
			return out, ErrSweetNotFound
		}
		if err != nil {
			return out, storeErr(err)
		}

		// 価格は同じスナップショットから取る（更新中の価格変更に引きずられない）
		out.Sweet = updated
		out.Purchased = qty
		out.Total = s.Price.Mul(decimal.NewFromInt(qty))
		return out, nil
	}

	return out, ErrConflict
}

type RestockOutput struct {
	Sweet     model.Sweet
	Restocked int64
}

// Restock は在庫を qty 増やす。上限はない。
func (u *InventoryUsecase) Restock(ctx context.Context, sweetID string, qty int64) (RestockOutput, error) {
	var out RestockOutput

	if qty < 1 {
		return out, NewHTTPError(400, "Restock quantity must be at least 1")
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		s, err := u.sweets.FindByID(ctx, sweetID)
		if errors.Is(err, repo.ErrNotFound) {
			return out, ErrSweetNotFound
		}
		if err != nil {
			return out, storeErr(err)
		}

		newQty := s.Quantity + qty
		updated, err := u.sweets.ConditionalUpdate(ctx, s.ID, s.Version, repo.SweetChanges{
			Quantity: &newQty,
		})
		if errors.Is(err, repo.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, repo.ErrNotFound) {
			return out, ErrSweetNotFound
		}
		if err != nil {
			return out, storeErr(err)
		}

		out.Sweet = updated
		out.Restocked = qty
		return out, nil
	}

	return out, ErrConflict
}

type CreateSweetInput struct {
	Name        string
	Category    model.Category
	Price       decimal.Decimal
	Quantity    int64
	Description string
	ImageURL    string
}

// Create は管理者による新規登録。IDはここで採番し、再利用しない。
func (u *InventoryUsecase) Create(ctx context.Context, in CreateSweetInput) (model.Sweet, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Sweet{}, NewHTTPError(400, "Sweet name is required")
	}
	if len(name) > 100 {
		return model.Sweet{}, NewHTTPError(400, "Sweet name cannot exceed 100 characters")
	}
	if !in.Category.Valid() {
		return model.Sweet{}, NewHTTPError(400, "Category must be one of: chocolate, candy, gummy, hard candy, toffee, lollipop, other")
	}
	if in.Price.LessThan(model.MinPrice) {
		return model.Sweet{}, NewHTTPError(400, "Price must be at least 0.01")
	}
	if in.Quantity < 0 {
		return model.Sweet{}, NewHTTPError(400, "Quantity cannot be negative")
	}
	if len(in.Description) > 500 {
		return model.Sweet{}, NewHTTPError(400, "Description cannot exceed 500 characters")
	}

	imageURL := strings.TrimSpace(in.ImageURL)
	if imageURL == "" {
		imageURL = model.DefaultImageURL
	}

	now := time.Now()
	created, err := u.sweets.Create(ctx, model.Sweet{
		ID:          uuid.NewString(),
		Name:        name,
		Category:    in.Category,
		Price:       in.Price,
		Quantity:    in.Quantity,
		Description: in.Description,
		ImageURL:    imageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Sweet{}, storeErr(err)
	}
	return created, nil
}

type AdjustSweetInput struct {
	Name        *string
	Category    *model.Category
	Price       *decimal.Decimal
	Quantity    *int64
	Description *string
	ImageURL    *string
}

// Adjust は管理者による部分更新。nilのフィールドは触らない。
// Quantityはpurchase/restockを通さずカウンターを直接置き換えるが、
// 負数は拒否し、書き込み自体は同じversionチェックを通す。
func (u *InventoryUsecase) Adjust(ctx context.Context, sweetID string, in AdjustSweetInput) (model.Sweet, error) {
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		if trimmed == "" {
			return model.Sweet{}, NewHTTPError(400, "Sweet name is required")
		}
		if len(trimmed) > 100 {
			return model.Sweet{}, NewHTTPError(400, "Sweet name cannot exceed 100 characters")
		}
		in.Name = &trimmed
	}
	if in.Category != nil && !in.Category.Valid() {
		return model.Sweet{}, NewHTTPError(400, "Category must be one of: chocolate, candy, gummy, hard candy, toffee, lollipop, other")
	}
	if in.Price != nil && in.Price.LessThan(model.MinPrice) {
		return model.Sweet{}, NewHTTPError(400, "Price must be at least 0.01")
	}
	if in.Quantity != nil && *in.Quantity < 0 {
		return model.Sweet{}, NewHTTPError(400, "Quantity cannot be negative")
	}
	if in.Description != nil && len(*in.Description) > 500 {
		return model.Sweet{}, NewHTTPError(400, "Description cannot exceed 500 characters")
	}

	for attempt := 0; attempt < maxWriteAttempts; attempt++ {
		s, err := u.sweets.FindByID(ctx, sweetID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.Sweet{}, ErrSweetNotFound
		}
		if err != nil {
			return model.Sweet{}, storeErr(err)
		}

		updated, err := u.sweets.ConditionalUpdate(ctx, s.ID, s.Version, repo.SweetChanges{
			Name:        in.Name,
			Category:    in.Category,
			Price:       in.Price,
			Quantity:    in.Quantity,
			Description: in.Description,
			ImageURL:    in.ImageURL,
		})
		if errors.Is(err, repo.ErrVersionConflict) {
			continue
		}
		if errors.Is(err, repo.ErrNotFound) {
			return model.Sweet{}, ErrSweetNotFound
		}
		if err != nil {
			return model.Sweet{}, storeErr(err)
		}
		return updated, nil
	}

	return model.Sweet{}, ErrConflict
}

// Delete は即時の物理削除。
func (u *InventoryUsecase) Delete(ctx context.Context, sweetID string) error {
	err := u.sweets.Delete(ctx, sweetID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSweetNotFound
	}
	if err != nil {
		return storeErr(err)
	}
	return nil
}

// ストア層の失敗を分類する。タイムアウト/キャンセルは Unavailable として報告。
func storeErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrStoreUnavailable
	}
	return err
}
