package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"marketplace/internal/catalog/repository"
	"marketplace/internal/catalog/validator"
	"marketplace/pkg/config"
	apperrors "marketplace/pkg/errors"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
	"marketplace/pkg/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(repo repository.CatalogRepository) *catalogService {
	log := logger.Discard()
	svc := NewCatalogService(repo, validator.NewCatalogValidator(log), &config.Config{Log: log}).(*catalogService)
	svc.now = func() time.Time { return now }
	return svc
}

func seed(t *testing.T, svc CatalogService, kind model.CatalogKind, inputs ...model.CatalogInput) []*model.CatalogItem {
	t.Helper()
	var out []*model.CatalogItem
	for i := range inputs {
		item, err := svc.Create(context.Background(), kind, &inputs[i])
		require.NoError(t, err)
		out = append(out, item)
	}
	return out
}

func TestCreate_SanitizesAndDefaults(t *testing.T) {
	svc := newTestService(repository.NewMemoryCatalogRepository())

	item, err := svc.Create(context.Background(), model.KindEvent, &model.CatalogInput{
		Title:    "  Sunset   hike ",
		Date:     now.Add(24 * time.Hour),
		Tags:     []string{" Plein Air", "plein air", ""},
		Rating:   4.26,
		Capacity: 10,
	})
	require.NoError(t, err)

	assert.Equal(t, "Sunset hike", item.Title)
	assert.Equal(t, []string{"plein-air"}, item.Tags)
	assert.Equal(t, model.CatalogActive, item.Status)
	assert.Equal(t, 4.3, item.Rating)
	assert.Equal(t, model.KindEvent, item.Kind)
}

func TestCreate_Rejects(t *testing.T) {
	svc := newTestService(repository.NewMemoryCatalogRepository())

	_, err := svc.Create(context.Background(), model.KindEvent, &model.CatalogInput{
		Title: "Packed", Date: now, Participants: 5, Capacity: 2,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, apperrors.AsAppError(err).StatusCode())

	_, err = svc.Create(context.Background(), "workshop", &model.CatalogInput{Title: "Clay", Date: now})
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}

func TestList_SearchStatusAndPaging(t *testing.T) {
	svc := newTestService(repository.NewMemoryCatalogRepository())
	seed(t, svc, model.KindEvent,
		model.CatalogInput{Title: "Wine tasting", Date: now.Add(3 * time.Hour)},
		model.CatalogInput{Title: "Kayak trip", Description: "River and wine", Date: now.Add(2 * time.Hour), Status: model.CatalogDraft},
		model.CatalogInput{Title: "Night market", Date: now.Add(time.Hour), Tags: []string{"Wine"}},
	)
	seed(t, svc, model.KindDiscovery, model.CatalogInput{Title: "Wine cellar", Date: now})

	items, total, err := svc.List(context.Background(), model.KindEvent, "WINE", "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	titles := []string{items[0].Title, items[1].Title, items[2].Title}
	assert.Equal(t, []string{"Night market", "Kayak trip", "Wine tasting"}, titles)

	items, total, err = svc.List(context.Background(), model.KindEvent, "wine", model.CatalogActive, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Wine tasting", items[0].Title)

	_, _, err = svc.List(context.Background(), model.KindEvent, "", "archived", 10, 0)
	assert.Error(t, err)
}

func TestStatsAndFill(t *testing.T) {
	svc := newTestService(repository.NewMemoryCatalogRepository())
	items := seed(t, svc, model.KindEvent,
		model.CatalogInput{Title: "Hike", Date: now.Add(time.Hour), Rating: 4, Participants: 8, Capacity: 12, Tags: []string{"Nature", "Sport"}},
		model.CatalogInput{Title: "Choir", Date: now.Add(-time.Hour), Participants: 2, Capacity: 8, Tags: []string{"Music", "Sport"}},
		model.CatalogInput{Title: "Draft", Date: now.Add(time.Hour), Rating: 4.5, Status: model.CatalogDraft},
	)

	summary, err := svc.Stats(context.Background(), model.KindEvent)
	require.NoError(t, err)
	assert.Equal(t, stats.Summary{
		Total:           3,
		UpcomingCount:   1,
		AvgRating:       4.3,
		ConversionRate:  50,
		PopularCategory: "sport",
	}, summary)

	fill, err := svc.Fill(context.Background(), items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 66.7, fill.Percentage)

	empty, err := svc.Stats(context.Background(), model.KindDiscovery)
	require.NoError(t, err)
	assert.Equal(t, stats.DefaultCategory, empty.PopularCategory)
}

type failingRepo struct{ repository.CatalogRepository }

func (failingRepo) FindByKind(context.Context, model.CatalogKind) ([]*model.CatalogItem, error) {
	return nil, errors.New("connection reset")
}

func TestGetByID_Errors(t *testing.T) {
	svc := newTestService(repository.NewMemoryCatalogRepository())

	_, err := svc.GetByID(context.Background(), "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())

	_, err = svc.Fill(context.Background(), "7d3f4c1e-8a2b-4c5d-9e6f-0a1b2c3d4e5f")
	assert.Equal(t, http.StatusNotFound, apperrors.AsAppError(err).StatusCode())

	_, err = newTestService(failingRepo{}).Stats(context.Background(), model.KindEvent)
	assert.Equal(t, http.StatusInternalServerError, apperrors.AsAppError(err).StatusCode())
}
