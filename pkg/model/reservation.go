package model

import (
	"math"
	"time"
)

// Domain is one of the four booking categories a customer can hold.
type Domain string

const (
	DomainLodging Domain = "lodging"
	DomainService Domain = "service"
	DomainTicket  Domain = "ticket"
	DomainFlight  Domain = "flight"
)

// Domains lists every domain in display order.
var Domains = []Domain{DomainLodging, DomainService, DomainTicket, DomainFlight}

func ParseDomain(s string) (Domain, bool) {
	for _, d := range Domains {
		if string(d) == s {
			return d, true
		}
	}
	return "", false
}

// CanonicalStatus is the unified five-state lifecycle shared by every domain.
type CanonicalStatus string

const (
	StatusPending    CanonicalStatus = "pending"
	StatusConfirmed  CanonicalStatus = "confirmed"
	StatusInProgress CanonicalStatus = "in_progress"
	StatusCompleted  CanonicalStatus = "completed"
	StatusCancelled  CanonicalStatus = "cancelled"
)

// StatusAll is the filter value that lets every status through.
const StatusAll = "all"

var CanonicalStatuses = []CanonicalStatus{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

func ParseCanonicalStatus(s string) (CanonicalStatus, bool) {
	for _, st := range CanonicalStatuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

func (s CanonicalStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s CanonicalStatus) Cancelable() bool {
	return !s.IsTerminal()
}

// DomainRecord is the raw, domain-specific shape served by the marketplace API.
// Implementations are values owned by a single BookingRecord; WithRawStatus
// returns a modified copy instead of mutating in place.
type DomainRecord interface {
	Domain() Domain
	RecordID() string
	RawStatus() string
	WithRawStatus(status string) DomainRecord
	Amount() float64
	ScheduledAt() time.Time
}

// BookingRecord is the canonical view of a single reservation in any domain.
type BookingRecord struct {
	ID              string          `json:"id"`
	Domain          Domain          `json:"domain"`
	CanonicalStatus CanonicalStatus `json:"canonical_status"`
	RawStatus       string          `json:"raw_status"`
	Amount          float64         `json:"amount"`
	ScheduledAt     time.Time       `json:"scheduled_at"`
	Raw             DomainRecord    `json:"raw"`
}

func (r BookingRecord) Cancelable() bool {
	return r.CanonicalStatus.Cancelable()
}

// WithStatus returns a copy of the record carrying a new raw and canonical status.
func (r BookingRecord) WithStatus(raw string, canonical CanonicalStatus) BookingRecord {
	r.RawStatus = raw
	r.CanonicalStatus = canonical
	if r.Raw != nil {
		r.Raw = r.Raw.WithRawStatus(raw)
	}
	return r
}

// CardView is the uniform list projection of a BookingRecord.
type CardView struct {
	ID         string          `json:"id"`
	Domain     Domain          `json:"domain"`
	Image      string          `json:"image"`
	Title      string          `json:"title"`
	Subtitle   string          `json:"subtitle"`
	DateLabel  string          `json:"date_label"`
	DetailLine string          `json:"detail_line"`
	Amount     float64         `json:"amount"`
	Cancelable bool            `json:"cancelable"`
	Status     CanonicalStatus `json:"status"`
}

func (c CardView) SearchTitle() string       { return c.Title }
func (c CardView) SearchDescription() string { return c.Subtitle }
func (c CardView) FilterStatus() string      { return string(c.Status) }

// RoundTo rounds v to the given number of decimals, half away from zero.
func RoundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// RoundCurrency rounds a monetary amount to cents.
func RoundCurrency(v float64) float64 {
	return RoundTo(v, 2)
}
