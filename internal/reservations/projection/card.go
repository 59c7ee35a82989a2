// Package projection turns canonical reservation records into the uniform
// card view used by the reservation lists. Missing nested fields fall back to
// fixed labels; projection never fails.
package projection

import (
	"fmt"
	"strings"
	"time"

	"marketplace/pkg/model"
)

const (
	DefaultPlaceholderImage = "https://placehold.co/600x400?text=Reservation"

	FallbackUnlimited  = "Non limité"
	FallbackUnrated    = "Non noté"
	FallbackNoLocation = "Lieu non précisé"
	FallbackNoDate     = "Date non précisée"
	FallbackNoProvider = "Prestataire non précisé"
	FallbackNoRoute    = "Trajet non précisé"
	fallbackLodging    = "Logement"
	fallbackService    = "Prestation"
	fallbackPlace      = "Site touristique"
	fallbackAirline    = "Vol"
	dateLayout         = "02/01/2006"
	dateTimeLayout     = "02/01/2006 15:04"
)

// Projector builds CardViews. The zero value uses DefaultPlaceholderImage.
type Projector struct {
	PlaceholderImage string
}

func New(placeholderImage string) *Projector {
	return &Projector{PlaceholderImage: placeholderImage}
}

// Project builds the card for a record. Records whose raw payload does not
// match their domain still yield a card from the canonical fields.
func (p *Projector) Project(rec model.BookingRecord) model.CardView {
	card := model.CardView{
		ID:         rec.ID,
		Domain:     rec.Domain,
		Image:      p.placeholder(),
		DateLabel:  formatDate(rec.ScheduledAt, dateLayout),
		Amount:     rec.Amount,
		Cancelable: rec.Cancelable(),
		Status:     rec.CanonicalStatus,
	}

	switch raw := rec.Raw.(type) {
	case model.LodgingBooking:
		p.lodging(&card, raw)
	case model.ServiceAppointment:
		p.service(&card, raw)
	case model.TicketBooking:
		p.ticket(&card, raw)
	case model.FlightReservation:
		p.flight(&card, raw)
	default:
		card.Title = string(rec.Domain)
		card.Subtitle = FallbackNoLocation
	}
	return card
}

// ProjectAll keeps the input order.
func (p *Projector) ProjectAll(recs []model.BookingRecord) []model.CardView {
	out := make([]model.CardView, 0, len(recs))
	for _, rec := range recs {
		out = append(out, p.Project(rec))
	}
	return out
}

func (p *Projector) lodging(card *model.CardView, b model.LodgingBooking) {
	card.Title = fallbackLodging
	card.Subtitle = FallbackNoLocation
	if prop := b.Property; prop != nil {
		card.Image = p.firstImage(prop.Images)
		card.Title = orDefault(prop.Title, fallbackLodging)
		card.Subtitle = orDefault(joinNonEmpty(", ", prop.Address, prop.City), FallbackNoLocation)
	}

	checkIn := formatDate(b.CheckIn.Time, dateLayout)
	if !b.CheckOut.IsZero() {
		checkIn = fmt.Sprintf("%s → %s", checkIn, formatDate(b.CheckOut.Time, dateLayout))
	}
	card.DateLabel = checkIn
	card.DetailLine = fmt.Sprintf("%d nuit(s) · %d voyageur(s)", b.Nights(), b.Guests)
}

func (p *Projector) service(card *model.CardView, a model.ServiceAppointment) {
	card.Title = fallbackService
	card.Subtitle = FallbackNoProvider
	detail := ""
	if svc := a.Service; svc != nil {
		card.Image = p.firstImage(svc.Images)
		card.Title = orDefault(svc.Name, fallbackService)
		provider := ""
		if svc.Provider != nil {
			provider = svc.Provider.Name
		}
		card.Subtitle = orDefault(provider, orDefault(svc.Category, FallbackNoProvider))
		detail = svc.Category
	}

	card.DateLabel = formatDate(a.ScheduledAt(), dateLayout)
	if slot := strings.TrimSpace(a.Time); slot != "" && !a.Date.IsZero() {
		card.DateLabel = fmt.Sprintf("%s à %s", formatDate(a.Date.Time, dateLayout), slot)
	}
	card.DetailLine = orDefault(joinNonEmpty(" · ", detail, strings.TrimSpace(a.Notes)), "-")
}

func (p *Projector) ticket(card *model.CardView, t model.TicketBooking) {
	card.Title = fallbackPlace
	card.Subtitle = FallbackNoLocation
	rating := FallbackUnrated
	if place := t.TouristicPlace; place != nil {
		card.Image = p.firstImage(place.Images)
		card.Title = orDefault(place.Name, fallbackPlace)
		card.Subtitle = orDefault(place.City, FallbackNoLocation)
		if place.Rating != nil && *place.Rating > 0 {
			rating = fmt.Sprintf("%.1f/5", *place.Rating)
		}
	}
	card.DetailLine = fmt.Sprintf("%d billet(s) · Note : %s", t.NumberOfTickets, rating)
}

func (p *Projector) flight(card *model.CardView, f model.FlightReservation) {
	card.Title = fallbackAirline
	card.Subtitle = FallbackNoRoute
	seats := FallbackUnlimited
	if vol := f.Vol; vol != nil {
		if img := strings.TrimSpace(vol.Image); img != "" {
			card.Image = img
		}
		card.Title = orDefault(vol.Compagnie, fallbackAirline)
		if vol.Depart != "" || vol.Destination != "" {
			card.Subtitle = fmt.Sprintf("%s → %s", orDefault(vol.Depart, "?"), orDefault(vol.Destination, "?"))
		}
		card.DateLabel = formatDate(vol.DateDepart.Time, dateTimeLayout)
		if vol.PlacesDisponibles != nil {
			seats = fmt.Sprintf("%d", *vol.PlacesDisponibles)
		}
	}
	card.DetailLine = fmt.Sprintf("%d passager(s) · Places restantes : %s", f.NombrePassagers, seats)
}

func (p *Projector) placeholder() string {
	if p == nil || p.PlaceholderImage == "" {
		return DefaultPlaceholderImage
	}
	return p.PlaceholderImage
}

func (p *Projector) firstImage(images []string) string {
	for _, img := range images {
		if s := strings.TrimSpace(img); s != "" {
			return s
		}
	}
	return p.placeholder()
}

func formatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return FallbackNoDate
	}
	return t.Format(layout)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}
