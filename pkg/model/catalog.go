package model

import "time"

type CatalogKind string

const (
	KindEvent     CatalogKind = "event"
	KindDiscovery CatalogKind = "discovery"
)

const (
	CatalogActive   = "active"
	CatalogInactive = "inactive"
	CatalogDraft    = "draft"
)

// CatalogItem is an event or a discovery shown on the management screens.
type CatalogItem struct {
	ID           string      `json:"id" bson:"_id" validate:"required,uuid4"`
	Kind         CatalogKind `json:"kind" bson:"kind" validate:"required,oneof=event discovery"`
	Title        string      `json:"title" bson:"title" validate:"required,min=2,max=150"`
	Description  string      `json:"description" bson:"description" validate:"max=5000"`
	Category     string      `json:"category,omitempty" bson:"category,omitempty" validate:"max=60"`
	Location     string      `json:"location,omitempty" bson:"location,omitempty" validate:"max=150"`
	Date         time.Time   `json:"date" bson:"date" validate:"required"`
	Status       string      `json:"status" bson:"status" validate:"required,oneof=active inactive draft"`
	Rating       float64     `json:"rating" bson:"rating" validate:"gte=0,lte=5"`
	Participants int         `json:"participants" bson:"participants" validate:"gte=0"`
	Capacity     int         `json:"capacity" bson:"capacity" validate:"gte=0"`
	Price        float64     `json:"price" bson:"price" validate:"gte=0"`
	Tags         []string    `json:"tags" bson:"tags" validate:"max=20,dive,min=1,max=40"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
}

func (c *CatalogItem) SearchTitle() string       { return c.Title }
func (c *CatalogItem) SearchDescription() string { return c.Description }
func (c *CatalogItem) FilterStatus() string      { return c.Status }
func (c *CatalogItem) SearchTags() []string      { return c.Tags }

// CatalogInput is the create payload for events and discoveries.
type CatalogInput struct {
	Title        string    `json:"title" validate:"required,min=2,max=150"`
	Description  string    `json:"description" validate:"max=5000"`
	Category     string    `json:"category,omitempty" validate:"max=60"`
	Location     string    `json:"location,omitempty" validate:"max=150"`
	Date         time.Time `json:"date" validate:"required"`
	Status       string    `json:"status,omitempty" validate:"omitempty,oneof=active inactive draft"`
	Rating       float64   `json:"rating" validate:"gte=0,lte=5"`
	Participants int       `json:"participants" validate:"gte=0"`
	Capacity     int       `json:"capacity" validate:"gte=0"`
	Price        float64   `json:"price" validate:"gte=0"`
	Tags         []string  `json:"tags" validate:"max=20"`
}
