package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	catalogerrors "marketplace/internal/catalog/errors"
	"marketplace/internal/catalog/repository"
	"marketplace/internal/catalog/validator"
	"marketplace/pkg/config"
	apperrors "marketplace/pkg/errors"
	"marketplace/pkg/filter"
	"marketplace/pkg/model"
	"marketplace/pkg/sanitizer"
	"marketplace/pkg/stats"
)

type CatalogService interface {
	Create(ctx context.Context, kind model.CatalogKind, input *model.CatalogInput) (*model.CatalogItem, error)
	GetByID(ctx context.Context, id string) (*model.CatalogItem, error)
	List(ctx context.Context, kind model.CatalogKind, search string, status string, limit int, offset int64) ([]*model.CatalogItem, int64, error)
	Stats(ctx context.Context, kind model.CatalogKind) (stats.Summary, error)
	Fill(ctx context.Context, id string) (*FillLevel, error)
}

// FillLevel backs the per-item progress bar.
type FillLevel struct {
	ID           string  `json:"id"`
	Participants int     `json:"participants"`
	Capacity     int     `json:"capacity"`
	Percentage   float64 `json:"fill_percentage"`
}

type catalogService struct {
	repo      repository.CatalogRepository
	validator *validator.CatalogValidator
	cfg       *config.Config
	now       func() time.Time
}

func NewCatalogService(repo repository.CatalogRepository, validator *validator.CatalogValidator, cfg *config.Config) CatalogService {
	return &catalogService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
		now:       time.Now,
	}
}

func ParseKind(s string) (model.CatalogKind, bool) {
	switch model.CatalogKind(s) {
	case model.KindEvent:
		return model.KindEvent, true
	case model.KindDiscovery:
		return model.KindDiscovery, true
	}
	return "", false
}

func (s *catalogService) Create(ctx context.Context, kind model.CatalogKind, input *model.CatalogInput) (*model.CatalogItem, error) {
	if input == nil {
		return nil, apperrors.InvalidInput("Catalog item cannot be empty")
	}
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, apperrors.InvalidInput("Unknown catalog kind: " + string(kind))
	}

	input.Title = sanitizer.SanitizeText(input.Title)
	input.Description = sanitizer.SanitizeText(input.Description)
	input.Location = sanitizer.SanitizeText(input.Location)
	input.Category = sanitizer.SanitizeCategory(input.Category)
	input.Tags = sanitizer.SanitizeTags(input.Tags)
	if input.Status == "" {
		input.Status = model.CatalogActive
	}
	if err := s.validate(func() error { return s.validator.ValidateInput(input) }); err != nil {
		return nil, err
	}

	item := &model.CatalogItem{
		ID:           uuid.NewString(),
		Kind:         kind,
		Title:        input.Title,
		Description:  input.Description,
		Category:     input.Category,
		Location:     input.Location,
		Date:         input.Date.UTC(),
		Status:       input.Status,
		Rating:       model.RoundTo(input.Rating, 1),
		Participants: input.Participants,
		Capacity:     input.Capacity,
		Price:        model.RoundCurrency(input.Price),
		Tags:         input.Tags,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.validate(func() error { return s.validator.Validate(item) }); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		s.cfg.Log.Error("Failed to create catalog item", "kind", kind, "error", err)
		return nil, apperrors.Internal("Failed to create catalog item", err)
	}

	s.cfg.Log.Info("Catalog item created", "item_id", item.ID, "kind", kind, "status", item.Status)
	return item, nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*model.CatalogItem, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Catalog item ID cannot be empty")
	}
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Catalog item", id)
		case errors.Is(err, catalogerrors.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid catalog item ID format")
		default:
			return nil, apperrors.Internal("Failed to retrieve catalog item", err)
		}
	}
	return item, nil
}

func (s *catalogService) List(ctx context.Context, kind model.CatalogKind, search string, status string, limit int, offset int64) ([]*model.CatalogItem, int64, error) {
	if status == "" {
		status = model.StatusAll
	}
	switch status {
	case model.StatusAll, model.CatalogActive, model.CatalogInactive, model.CatalogDraft:
	default:
		return nil, 0, apperrors.InvalidInput("Unknown catalog status: " + status)
	}

	items, err := s.repo.FindByKind(ctx, kind)
	if err != nil {
		s.cfg.Log.Error("Failed to list catalog items", "kind", kind, "error", err)
		return nil, 0, apperrors.Internal("Failed to retrieve catalog items", err)
	}

	matched := filter.Apply(items, search, status)
	total := int64(len(matched))

	offset = config.NormalizeOffset(offset)
	if offset >= total {
		return []*model.CatalogItem{}, total, nil
	}
	end := total
	if limit > 0 && offset+int64(limit) < end {
		end = offset + int64(limit)
	}
	return matched[offset:end], total, nil
}

// Stats summarizes a snapshot of every item of the kind, regardless of
// status.
func (s *catalogService) Stats(ctx context.Context, kind model.CatalogKind) (stats.Summary, error) {
	items, err := s.repo.FindByKind(ctx, kind)
	if err != nil {
		s.cfg.Log.Error("Failed to load catalog for stats", "kind", kind, "error", err)
		return stats.Summary{}, apperrors.Internal("Failed to compute catalog stats", err)
	}
	return stats.Summarize(stats.FromCatalog(items), s.now()), nil
}

func (s *catalogService) Fill(ctx context.Context, id string) (*FillLevel, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &FillLevel{
		ID:           item.ID,
		Participants: item.Participants,
		Capacity:     item.Capacity,
		Percentage:   stats.FillPercentage(item.Participants, item.Capacity),
	}, nil
}

func (s *catalogService) validate(check func() error) error {
	err := check()
	if err == nil {
		return nil
	}
	var ferrs validator.FieldErrors
	if errors.As(err, &ferrs) {
		s.cfg.Log.Warn("Catalog validation failed", "error", err)
		return apperrors.Validation("Invalid catalog item", ferrs.Details())
	}
	return apperrors.Validation("Invalid catalog item", map[string]any{"error": err.Error()})
}
