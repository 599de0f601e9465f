package usecase

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
)

// CatalogUsecase は読み取り専用の検索・一覧。ロックは取らない。
type CatalogUsecase struct {
	sweets repo.SweetRepository
}

// DI
func NewCatalogUsecase(sweets repo.SweetRepository) *CatalogUsecase {
	return &CatalogUsecase{sweets: sweets}
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

type ListOutput struct {
	Sweets     []model.Sweet
	Pagination Pagination
}

// List は新しい順のページング一覧。page/limitが未指定・非正なら1/10。
func (u *CatalogUsecase) List(ctx context.Context, page int, limit int) (ListOutput, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	items, total, err := u.sweets.Query(ctx, repo.SweetQuery{
		Skip:  (page - 1) * limit,
		Limit: limit,
	})
	if err != nil {
		return ListOutput{}, storeErr(err)
	}

	return ListOutput{
		Sweets: items,
		Pagination: Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + int64(limit) - 1) / int64(limit),
		},
	}, nil
}

type SearchInput struct {
	Name     string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Search は条件をANDで重ねた全件検索。新しい順、ページングなし。
func (u *CatalogUsecase) Search(ctx context.Context, in SearchInput) ([]model.Sweet, error) {
	q := repo.SweetQuery{
		Name: strings.TrimSpace(in.Name),
	}

	if c := strings.TrimSpace(in.Category); c != "" {
		cat := model.Category(c)
		if !cat.Valid() {
			return nil, NewHTTPError(400, "Category must be one of: chocolate, candy, gummy, hard candy, toffee, lollipop, other")
		}
		q.Category = cat
	}

	if in.MinPrice != nil {
		if in.MinPrice.IsNegative() {
			return nil, NewHTTPError(400, "minPrice must be >= 0")
		}
		q.MinPrice = in.MinPrice
	}
	if in.MaxPrice != nil {
		if in.MaxPrice.IsNegative() {
			return nil, NewHTTPError(400, "maxPrice must be >= 0")
		}
		q.MaxPrice = in.MaxPrice
	}

	items, _, err := u.sweets.Query(ctx, q)
	if err != nil {
		return nil, storeErr(err)
	}
	return items, nil
}
