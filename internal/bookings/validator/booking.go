package validator

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"

	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

const MaxReasonLength = 500

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors into a field -> message map for API responses.
func (v ValidationErrors) Details() map[string]any {
	details := make(map[string]any, len(v))
	for _, err := range v {
		details[err.Field] = err.Message
	}
	return details
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("currency", validateCurrency); err != nil {
		log.Fatal("Failed to register 'currency' validator",
			"error", err,
		)
	}

	log.Debug("Booking validator initialized")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

// validateCurrency accepts finite, non-negative amounts.
func validateCurrency(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0) && f >= 0
}

func (v *BookingValidator) ValidateIntake(intake *model.BookingIntake) error {
	return v.structErrors(intake)
}

// Validate checks a fully built booking before it is stored.
func (v *BookingValidator) Validate(booking *model.ProviderBooking) error {
	if err := v.structErrors(booking); err != nil {
		return err
	}
	if booking.Status != model.StatusPending {
		return ValidationErrors{{Field: "Status", Message: "new bookings must be pending"}}
	}
	return nil
}

func (v *BookingValidator) ValidateReason(reason string) error {
	if len([]rune(reason)) > MaxReasonLength {
		return ValidationErrors{{
			Field:   "reason",
			Message: fmt.Sprintf("reason must be at most %d characters", MaxReasonLength),
		}}
	}
	return nil
}

func (v *BookingValidator) structErrors(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "uuid4":
			message = fmt.Sprintf("%s must be a valid UUID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +33612345678)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "gte", "currency":
			message = fmt.Sprintf("%s must not be negative", err.Field())
		case "ltefield":
			message = fmt.Sprintf("%s cannot exceed %s", err.Field(), err.Param())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
