package repository

import (
	"context"
	"sort"
	"sync"

	catalogerrors "marketplace/internal/catalog/errors"
	"marketplace/pkg/model"
)

type memoryCatalogRepository struct {
	mu    sync.RWMutex
	items map[string]*model.CatalogItem
}

// NewMemoryCatalogRepository keeps items in process memory. Used with
// STORAGE_BACKEND=memory and in tests.
func NewMemoryCatalogRepository() CatalogRepository {
	return &memoryCatalogRepository{items: make(map[string]*model.CatalogItem)}
}

func (r *memoryCatalogRepository) Create(_ context.Context, item *model.CatalogItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return catalogerrors.ErrDuplicateID
	}
	r.items[item.ID] = clone(item)
	return nil
}

func (r *memoryCatalogRepository) FindByID(_ context.Context, id string) (*model.CatalogItem, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return nil, catalogerrors.ErrNotFound
	}
	return clone(item), nil
}

func (r *memoryCatalogRepository) FindByKind(_ context.Context, kind model.CatalogKind) ([]*model.CatalogItem, error) {
	r.mu.RLock()
	out := make([]*model.CatalogItem, 0, len(r.items))
	for _, item := range r.items {
		if item.Kind == kind {
			out = append(out, clone(item))
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func clone(item *model.CatalogItem) *model.CatalogItem {
	c := *item
	c.Tags = append([]string(nil), item.Tags...)
	return &c
}
