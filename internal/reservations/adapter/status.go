// Package adapter translates each domain's native status vocabulary into the
// canonical lifecycle and builds canonical BookingRecords from raw records.
package adapter

import (
	"fmt"

	reserrors "marketplace/internal/reservations/errors"
	"marketplace/pkg/model"
)

type vocabulary struct {
	toCanonical map[string]model.CanonicalStatus
	// preferred raw value per canonical status, used for query params and patches
	preferred map[model.CanonicalStatus]string
	order     []string
}

var englishCore = map[string]model.CanonicalStatus{
	"pending":   model.StatusPending,
	"confirmed": model.StatusConfirmed,
	"completed": model.StatusCompleted,
	"cancelled": model.StatusCancelled,
}

var englishPreferred = map[model.CanonicalStatus]string{
	model.StatusPending:   "pending",
	model.StatusConfirmed: "confirmed",
	model.StatusCompleted: "completed",
	model.StatusCancelled: "cancelled",
}

var vocabularies = map[model.Domain]vocabulary{
	model.DomainLodging: {
		toCanonical: map[string]model.CanonicalStatus{
			"en_attente": model.StatusPending,
			"confirmee":  model.StatusConfirmed,
			"terminee":   model.StatusCompleted,
			"annulee":    model.StatusCancelled,
		},
		preferred: map[model.CanonicalStatus]string{
			model.StatusPending:   "en_attente",
			model.StatusConfirmed: "confirmee",
			model.StatusCompleted: "terminee",
			model.StatusCancelled: "annulee",
		},
		order: []string{"en_attente", "confirmee", "terminee", "annulee"},
	},
	model.DomainService: {
		toCanonical: englishCore,
		preferred:   englishPreferred,
		order:       []string{"pending", "confirmed", "completed", "cancelled"},
	},
	model.DomainTicket: {
		toCanonical: englishCore,
		preferred:   englishPreferred,
		order:       []string{"pending", "confirmed", "completed", "cancelled"},
	},
	model.DomainFlight: {
		toCanonical: map[string]model.CanonicalStatus{
			"pending":   model.StatusPending,
			"confirmed": model.StatusConfirmed,
			"completed": model.StatusCompleted,
			"cancelled": model.StatusCancelled,
			"paid":      model.StatusConfirmed,
			"failed":    model.StatusCancelled,
			"refunded":  model.StatusCancelled,
		},
		preferred: englishPreferred,
		order:     []string{"pending", "confirmed", "completed", "cancelled", "paid", "failed", "refunded"},
	},
}

// MapStatus converts a raw domain status into its canonical value.
func MapStatus(domain model.Domain, raw string) (model.CanonicalStatus, error) {
	v, ok := vocabularies[domain]
	if !ok {
		return "", fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, domain)
	}
	canonical, ok := v.toCanonical[raw]
	if !ok {
		return "", fmt.Errorf("%w: %s status %q", reserrors.ErrUnknownStatus, domain, raw)
	}
	return canonical, nil
}

// IsCancelable is false for terminal statuses and for anything MapStatus rejects.
func IsCancelable(domain model.Domain, raw string) bool {
	canonical, err := MapStatus(domain, raw)
	if err != nil {
		return false
	}
	return canonical.Cancelable()
}

// RawFor returns the raw value a domain uses for the canonical status.
// in_progress has no raw equivalent in any customer domain.
func RawFor(domain model.Domain, canonical model.CanonicalStatus) (string, error) {
	v, ok := vocabularies[domain]
	if !ok {
		return "", fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, domain)
	}
	raw, ok := v.preferred[canonical]
	if !ok {
		return "", fmt.Errorf("%w: %s has no raw value for %q", reserrors.ErrUnknownStatus, domain, canonical)
	}
	return raw, nil
}

// Vocabulary lists the raw statuses a domain accepts.
func Vocabulary(domain model.Domain) []string {
	v, ok := vocabularies[domain]
	if !ok {
		return nil
	}
	out := make([]string, len(v.order))
	copy(out, v.order)
	return out
}
