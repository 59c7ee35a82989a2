package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Date accepts the loose date encodings served by the marketplace API:
// RFC 3339 timestamps, plain dates, empty strings and null.
type Date struct {
	time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Non-string payloads are treated as an absent date.
		d.Time = time.Time{}
		return nil
	}
	d.Time = ParseDate(s)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// ParseDate returns the zero time when s matches none of the known layouts.
func ParseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// nested decodes an embedded reference. Unpopulated references (an id
// string, a number, null) and objects that fail to decode yield nil.
func nested[T any](raw json.RawMessage) *T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}

// ----- lodging -----

type LodgingProperty struct {
	Title   string   `json:"title"`
	Images  []string `json:"images,omitempty"`
	City    string   `json:"city,omitempty"`
	Address string   `json:"address,omitempty"`
}

type LodgingBooking struct {
	ID         string           `json:"_id" validate:"required"`
	UserID     string           `json:"userId,omitempty"`
	Property   *LodgingProperty `json:"property,omitempty"`
	CheckIn    Date             `json:"checkIn"`
	CheckOut   Date             `json:"checkOut"`
	Guests     int              `json:"guests,omitempty" validate:"gte=0"`
	TotalPrice float64          `json:"totalPrice"`
	Status     string           `json:"status" validate:"required"`
}

func (b *LodgingBooking) UnmarshalJSON(data []byte) error {
	type alias LodgingBooking
	aux := struct {
		*alias
		Property json.RawMessage `json:"property"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.Property = nested[LodgingProperty](aux.Property)
	return nil
}

func (b LodgingBooking) Domain() Domain         { return DomainLodging }
func (b LodgingBooking) RecordID() string       { return b.ID }
func (b LodgingBooking) RawStatus() string      { return b.Status }
func (b LodgingBooking) Amount() float64        { return b.TotalPrice }
func (b LodgingBooking) ScheduledAt() time.Time { return b.CheckIn.Time }

func (b LodgingBooking) WithRawStatus(status string) DomainRecord {
	b.Status = status
	return b
}

// Nights is zero when either bound is missing or the range is inverted.
func (b LodgingBooking) Nights() int {
	if b.CheckIn.IsZero() || b.CheckOut.IsZero() || !b.CheckOut.After(b.CheckIn.Time) {
		return 0
	}
	return int(b.CheckOut.Sub(b.CheckIn.Time).Hours() / 24)
}

// ----- service appointments -----

type ServiceProvider struct {
	Name string `json:"name"`
}

type ServiceOffer struct {
	Name     string           `json:"name"`
	Images   []string         `json:"images,omitempty"`
	Category string           `json:"category,omitempty"`
	Provider *ServiceProvider `json:"provider,omitempty"`
}

func (o *ServiceOffer) UnmarshalJSON(data []byte) error {
	type alias ServiceOffer
	aux := struct {
		*alias
		Provider json.RawMessage `json:"provider"`
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	o.Provider = nested[ServiceProvider](aux.Provider)
	return nil
}

type ServiceAppointment struct {
	ID      string        `json:"_id" validate:"required"`
	Service *ServiceOffer `json:"service,omitempty"`
	Date    Date          `json:"date"`
	Time    string        `json:"time,omitempty"`
	Price   float64       `json:"price"`
	Status  string        `json:"status" validate:"required"`
	Notes   string        `json:"notes,omitempty"`
}

func (a *ServiceAppointment) UnmarshalJSON(data []byte) error {
	type alias ServiceAppointment
	aux := struct {
		*alias
		Service json.RawMessage `json:"service"`
	}{alias: (*alias)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.Service = nested[ServiceOffer](aux.Service)
	return nil
}

func (a ServiceAppointment) Domain() Domain    { return DomainService }
func (a ServiceAppointment) RecordID() string  { return a.ID }
func (a ServiceAppointment) RawStatus() string { return a.Status }
func (a ServiceAppointment) Amount() float64   { return a.Price }

// ScheduledAt combines the appointment day with its "HH:MM" slot when present.
func (a ServiceAppointment) ScheduledAt() time.Time {
	if a.Date.IsZero() {
		return time.Time{}
	}
	slot, err := time.Parse("15:04", strings.TrimSpace(a.Time))
	if err != nil {
		return a.Date.Time
	}
	y, m, d := a.Date.Date()
	return time.Date(y, m, d, slot.Hour(), slot.Minute(), 0, 0, a.Date.Location())
}

func (a ServiceAppointment) WithRawStatus(status string) DomainRecord {
	a.Status = status
	return a
}

// ----- ticketed site visits -----

type TouristicPlace struct {
	Name   string   `json:"name"`
	Images []string `json:"images,omitempty"`
	City   string   `json:"city,omitempty"`
	Rating *float64 `json:"rating,omitempty"`
}

type TicketBooking struct {
	ID              string          `json:"_id" validate:"required"`
	UserID          string          `json:"userId,omitempty"`
	TouristicPlace  *TouristicPlace `json:"touristicPlace,omitempty"`
	VisitDate       Date            `json:"visitDate"`
	NumberOfTickets int             `json:"numberOfTickets,omitempty" validate:"gte=0"`
	TotalPrice      float64         `json:"totalPrice"`
	Status          string          `json:"status" validate:"required"`
}

func (t *TicketBooking) UnmarshalJSON(data []byte) error {
	type alias TicketBooking
	aux := struct {
		*alias
		TouristicPlace json.RawMessage `json:"touristicPlace"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	t.TouristicPlace = nested[TouristicPlace](aux.TouristicPlace)
	return nil
}

func (t TicketBooking) Domain() Domain         { return DomainTicket }
func (t TicketBooking) RecordID() string       { return t.ID }
func (t TicketBooking) RawStatus() string      { return t.Status }
func (t TicketBooking) Amount() float64        { return t.TotalPrice }
func (t TicketBooking) ScheduledAt() time.Time { return t.VisitDate.Time }

func (t TicketBooking) WithRawStatus(status string) DomainRecord {
	t.Status = status
	return t
}

// ----- flights -----

type Flight struct {
	Compagnie         string  `json:"compagnie"`
	Depart            string  `json:"depart"`
	Destination       string  `json:"destination"`
	DateDepart        Date    `json:"dateDepart"`
	Prix              float64 `json:"prix"`
	Image             string  `json:"image,omitempty"`
	PlacesDisponibles *int    `json:"placesDisponibles,omitempty"`
}

type FlightReservation struct {
	ID              string  `json:"_id" validate:"required"`
	Vol             *Flight `json:"vol,omitempty"`
	NombrePassagers int     `json:"nombrePassagers" validate:"gte=0"`
	Status          string  `json:"status" validate:"required"`
}

func (f *FlightReservation) UnmarshalJSON(data []byte) error {
	type alias FlightReservation
	aux := struct {
		*alias
		Vol json.RawMessage `json:"vol"`
	}{alias: (*alias)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	f.Vol = nested[Flight](aux.Vol)
	return nil
}

func (f FlightReservation) Domain() Domain    { return DomainFlight }
func (f FlightReservation) RecordID() string  { return f.ID }
func (f FlightReservation) RawStatus() string { return f.Status }

// Amount is the unit fare times the passenger count.
func (f FlightReservation) Amount() float64 {
	if f.Vol == nil {
		return 0
	}
	return f.Vol.Prix * float64(f.NombrePassagers)
}

func (f FlightReservation) ScheduledAt() time.Time {
	if f.Vol == nil {
		return time.Time{}
	}
	return f.Vol.DateDepart.Time
}

func (f FlightReservation) WithRawStatus(status string) DomainRecord {
	f.Status = status
	return f
}
