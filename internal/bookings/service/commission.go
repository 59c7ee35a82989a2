package service

import "marketplace/pkg/model"

// CommissionPolicy computes the platform share of a booking price.
type CommissionPolicy interface {
	Commission(price float64) float64
}

// FlatRate takes the same fraction of every price, rounded to cents.
type FlatRate float64

func (r FlatRate) Commission(price float64) float64 {
	return model.RoundCurrency(price * float64(r))
}
