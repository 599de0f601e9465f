package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"sweetshop/internal/domain/model"
	repo "sweetshop/internal/repository"
)

// SweetMemoryRepository はSweetRepositoryのインメモリ実装。
// versionチェックの規律はDB実装と同じで、テストの土台にする。
type SweetMemoryRepository struct {
	mu      sync.Mutex
	sweets  map[string]model.Sweet
	seq     map[string]int64 // 登録順。createdAtが同時刻のときの並び決め
	nextSeq int64
}

func NewSweetMemoryRepository() *SweetMemoryRepository {
	return &SweetMemoryRepository{
		sweets: make(map[string]model.Sweet),
		seq:    make(map[string]int64),
	}
}

func (r *SweetMemoryRepository) FindByID(ctx context.Context, id string) (model.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return model.Sweet{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]
	if !ok {
		return model.Sweet{}, repo.ErrNotFound
	}
	return s, nil
}

func (r *SweetMemoryRepository) Create(ctx context.Context, s model.Sweet) (model.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return model.Sweet{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweets[s.ID] = s
	r.nextSeq++
	r.seq[s.ID] = r.nextSeq
	return s, nil
}

func (r *SweetMemoryRepository) ConditionalUpdate(ctx context.Context, id string, expectedVersion int64, changes repo.SweetChanges) (model.Sweet, error) {
	if err := ctx.Err(); err != nil {
		return model.Sweet{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sweets[id]
	if !ok {
		return model.Sweet{}, repo.ErrNotFound
	}
	if s.Version != expectedVersion {
		return model.Sweet{}, repo.ErrVersionConflict
	}

	if changes.Name != nil {
		s.Name = *changes.Name
	}
	if changes.Category != nil {
		s.Category = *changes.Category
	}
	if changes.Price != nil {
		s.Price = *changes.Price
	}
	if changes.Quantity != nil {
		s.Quantity = *changes.Quantity
	}
	if changes.Description != nil {
		s.Description = *changes.Description
	}
	if changes.ImageURL != nil {
		s.ImageURL = *changes.ImageURL
	}
	s.Version++
	s.UpdatedAt = time.Now()

	r.sweets[id] = s
	return s, nil
}

func (r *SweetMemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sweets[id]; !ok {
		return repo.ErrNotFound
	}
	delete(r.sweets, id)
	delete(r.seq, id)
	return nil
}

func (r *SweetMemoryRepository) Query(ctx context.Context, q repo.SweetQuery) ([]model.Sweet, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	matched := make([]model.Sweet, 0, len(r.sweets))
	for _, s := range r.sweets {
		if !r.matches(s, q) {
			continue
		}
		matched = append(matched, s)
	}

	// 新しい順。同時刻は登録が後のものを先に
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return r.seq[matched[i].ID] > r.seq[matched[j].ID]
	})

	total := int64(len(matched))

	if q.Skip > 0 {
		if q.Skip >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.Skip:]
		}
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}

	return matched, total, nil
}

func (r *SweetMemoryRepository) matches(s model.Sweet, q repo.SweetQuery) bool {
	if name := strings.TrimSpace(q.Name); name != "" {
		if !strings.Contains(strings.ToLower(s.Name), strings.ToLower(name)) {
			return false
		}
	}
	if q.Category != "" && s.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && s.Price.LessThan(*q.MinPrice) {
		return false
	}
	if q.MaxPrice != nil && s.Price.GreaterThan(*q.MaxPrice) {
		return false
	}
	return true
}
