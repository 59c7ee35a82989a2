package adapter

import (
	"fmt"

	reserrors "marketplace/internal/reservations/errors"
	"marketplace/pkg/model"
)

// Record builds the canonical record for a raw domain record. It fails only
// when the raw status is outside the domain vocabulary.
func Record(raw model.DomainRecord) (model.BookingRecord, error) {
	if raw == nil {
		return model.BookingRecord{}, fmt.Errorf("%w: nil record", reserrors.ErrUnknownDomain)
	}
	canonical, err := MapStatus(raw.Domain(), raw.RawStatus())
	if err != nil {
		return model.BookingRecord{}, fmt.Errorf("record %s: %w", raw.RecordID(), err)
	}

	amount := raw.Amount()
	if amount < 0 {
		amount = 0
	}

	return model.BookingRecord{
		ID:              raw.RecordID(),
		Domain:          raw.Domain(),
		CanonicalStatus: canonical,
		RawStatus:       raw.RawStatus(),
		Amount:          model.RoundCurrency(amount),
		ScheduledAt:     raw.ScheduledAt(),
		Raw:             raw,
	}, nil
}

// Records converts a whole page. The first unmappable record fails the batch.
func Records[T model.DomainRecord](raws []T) ([]model.BookingRecord, error) {
	out := make([]model.BookingRecord, 0, len(raws))
	for _, raw := range raws {
		rec, err := Record(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
