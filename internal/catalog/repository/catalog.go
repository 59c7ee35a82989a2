package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	catalogerrors "marketplace/internal/catalog/errors"
	"marketplace/pkg/config"
	"marketplace/pkg/model"
)

const CollectionName = "Catalog"

type CatalogRepository interface {
	Create(ctx context.Context, item *model.CatalogItem) error
	FindByID(ctx context.Context, id string) (*model.CatalogItem, error)
	// FindByKind returns the items of one kind ordered by date, then
	// creation time.
	FindByKind(ctx context.Context, kind model.CatalogKind) ([]*model.CatalogItem, error)
}

type mongoCatalogRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoCatalogRepository(cfg *config.Config) CatalogRepository {
	return &mongoCatalogRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(CollectionName),
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return catalogerrors.ErrInvalidID
	}
	return nil
}

func (r *mongoCatalogRepository) Create(ctx context.Context, item *model.CatalogItem) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return catalogerrors.ErrDuplicateID
		}
		return fmt.Errorf("failed to insert catalog item: %w", err)
	}
	return nil
}

func (r *mongoCatalogRepository) FindByID(ctx context.Context, id string) (*model.CatalogItem, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var item model.CatalogItem
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find catalog item: %w", err)
	}
	return &item, nil
}

func (r *mongoCatalogRepository) FindByKind(ctx context.Context, kind model.CatalogKind) ([]*model.CatalogItem, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"kind": kind}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer cursor.Close(ctx)

	items := []*model.CatalogItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("failed to decode catalog items: %w", err)
	}
	return items, nil
}
