package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	parts := make([]string, 0, len(f))
	for _, e := range f {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (f FieldErrors) Details() map[string]any {
	details := make(map[string]any, len(f))
	for _, e := range f {
		details[e.Field] = e.Message
	}
	return details
}

type CatalogValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewCatalogValidator(log *logger.Logger) *CatalogValidator {
	v := validator.New()
	v.RegisterStructValidation(participantsWithinCapacity, model.CatalogItem{})

	log.Debug("Catalog validator initialized")
	return &CatalogValidator{validate: v, logger: log}
}

// participantsWithinCapacity allows open items (capacity 0) to have any
// number of participants.
func participantsWithinCapacity(sl validator.StructLevel) {
	item := sl.Current().Interface().(model.CatalogItem)
	if item.Capacity > 0 && item.Participants > item.Capacity {
		sl.ReportError(item.Participants, "Participants", "Participants", "ltecapacity", "")
	}
}

func (v *CatalogValidator) ValidateInput(input *model.CatalogInput) error {
	return v.check(input)
}

func (v *CatalogValidator) Validate(item *model.CatalogItem) error {
	return v.check(item)
}

func (v *CatalogValidator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, FieldError{Field: e.Field(), Message: message(e)})
	}
	return out
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", e.Field(), e.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", e.Field(), e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", e.Field(), e.Param())
	case "ltecapacity":
		return "Participants cannot exceed Capacity"
	default:
		return e.Error()
	}
}
