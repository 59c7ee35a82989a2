package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace/internal/reservations/adapter"
	reserrors "marketplace/internal/reservations/errors"
	"marketplace/internal/reservations/projection"
	"marketplace/pkg/client"
	"marketplace/pkg/filter"
	"marketplace/pkg/logger"
	"marketplace/pkg/model"
)

// Panel is a point-in-time copy of one domain's list state.
type Panel struct {
	Domain       model.Domain
	Records      []model.BookingRecord
	Loading      bool
	Err          error
	StatusFilter string
}

type panel struct {
	records      []model.BookingRecord
	loading      bool
	err          error
	statusFilter string
	// token of the latest request; responses carrying an older token are dropped
	token      uint64
	cancelling map[string]struct{}
	// acked maps an acknowledged cancellation to its raw cancelled status
	acked map[string]string
}

// Aggregator holds the four reservation panels of one customer session.
// Network calls run outside the lock; request tokens decide which response
// is committed.
type Aggregator struct {
	gw        Gateway
	creds     client.Credentials
	projector *projection.Projector
	notifier  Notifier
	log       *logger.Logger
	metrics   *Metrics
	timeout   time.Duration

	mu     sync.Mutex
	panels map[model.Domain]*panel
}

type AggregatorDeps struct {
	Gateway   Gateway
	Projector *projection.Projector
	Notifier  Notifier
	Log       *logger.Logger
	Metrics   *Metrics
	// Timeout bounds every backend call. Zero means the caller's context only.
	Timeout time.Duration
}

func NewAggregator(deps AggregatorDeps, creds client.Credentials) *Aggregator {
	log := deps.Log
	if log == nil {
		log = logger.Discard()
	}
	proj := deps.Projector
	if proj == nil {
		proj = projection.New("")
	}

	panels := make(map[model.Domain]*panel, len(model.Domains))
	for _, d := range model.Domains {
		panels[d] = &panel{
			statusFilter: model.StatusAll,
			cancelling:   make(map[string]struct{}),
			acked:        make(map[string]string),
		}
	}

	return &Aggregator{
		gw:        deps.Gateway,
		creds:     creds,
		projector: proj,
		notifier:  deps.Notifier,
		log:       log.Component("reservation_aggregator"),
		metrics:   deps.Metrics,
		timeout:   deps.Timeout,
		panels:    panels,
	}
}

// Load fetches the four domains concurrently. Each panel commits as soon as
// its own response arrives; a failure only affects that panel.
func (a *Aggregator) Load(ctx context.Context) []Panel {
	var wg sync.WaitGroup
	wg.Add(len(model.Domains))

	for _, d := range model.Domains {
		go func(d model.Domain) {
			defer wg.Done()
			a.refresh(ctx, d, nil)
		}(d)
	}

	wg.Wait()
	return a.Panels()
}

// SetStatusFilter changes a panel's canonical status filter. Lodging and
// ticket panels refetch with the matching raw status; service and flight
// panels filter in memory.
func (a *Aggregator) SetStatusFilter(ctx context.Context, d model.Domain, status string) (Panel, error) {
	if _, ok := a.panels[d]; !ok {
		return Panel{}, fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, d)
	}
	if status == "" {
		status = model.StatusAll
	}
	if status != model.StatusAll {
		canonical, ok := model.ParseCanonicalStatus(status)
		if !ok {
			return Panel{}, fmt.Errorf("%w: %q", reserrors.ErrUnknownStatus, status)
		}
		if serverFiltered(d) {
			if _, err := adapter.RawFor(d, canonical); err != nil {
				return Panel{}, err
			}
		}
	}

	setFilter := func(p *panel) { p.statusFilter = status }
	if !serverFiltered(d) {
		a.mu.Lock()
		setFilter(a.panels[d])
		a.mu.Unlock()
		return a.Panel(d)
	}

	a.refresh(ctx, d, setFilter)
	return a.Panel(d)
}

// refresh bumps the panel token, applies mutate under the same lock and
// fetches. The response is committed only if no newer request started.
// Cancellations acknowledged while the request was in flight are re-applied
// on commit.
func (a *Aggregator) refresh(ctx context.Context, d model.Domain, mutate func(*panel)) {
	a.mu.Lock()
	p := a.panels[d]
	if mutate != nil {
		mutate(p)
	}
	p.token++
	token := p.token
	p.loading = true
	status := p.statusFilter
	a.mu.Unlock()

	started := time.Now()
	records, err := a.fetch(ctx, d, status)

	a.mu.Lock()
	if token != p.token {
		a.mu.Unlock()
		a.metrics.observeFetch(d, outcomeStale, time.Since(started))
		a.log.Debug("Dropped stale reservation response", "domain", d, "token", token)
		return
	}
	p.loading = false
	if err != nil {
		fetchErr := &reserrors.FetchError{Domain: d, Err: err}
		p.records = []model.BookingRecord{}
		p.err = fetchErr
		a.mu.Unlock()

		a.metrics.observeFetch(d, outcomeFailure, time.Since(started))
		a.log.Error("Failed to load reservations", "domain", d, "user_id", a.creds.UserID, "error", err)
		a.notify(func(n Notifier) { n.Error(d, fetchErr.Error()) })
		return
	}
	p.records = reapplyCancelled(records, p.acked)
	p.err = nil
	a.mu.Unlock()

	a.metrics.observeFetch(d, outcomeSuccess, time.Since(started))
	a.log.Debug("Loaded reservations", "domain", d, "count", len(records), "status", status)
}

func (a *Aggregator) fetch(ctx context.Context, d model.Domain, status string) ([]model.BookingRecord, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	rawStatus := ""
	if serverFiltered(d) && status != model.StatusAll {
		raw, err := adapter.RawFor(d, model.CanonicalStatus(status))
		if err != nil {
			return nil, err
		}
		rawStatus = raw
	}

	switch d {
	case model.DomainLodging:
		items, err := a.gw.ListLodging(ctx, a.creds, rawStatus)
		if err != nil {
			return nil, err
		}
		return adapter.Records(items)
	case model.DomainService:
		items, err := a.gw.ListAppointments(ctx, a.creds)
		if err != nil {
			return nil, err
		}
		return adapter.Records(items)
	case model.DomainTicket:
		items, err := a.gw.ListTickets(ctx, a.creds, rawStatus)
		if err != nil {
			return nil, err
		}
		return adapter.Records(items)
	case model.DomainFlight:
		items, err := a.gw.ListFlights(ctx, a.creds)
		if err != nil {
			return nil, err
		}
		return adapter.Records(items)
	default:
		return nil, fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, d)
	}
}

// Cards projects a panel for display. The search term always applies; the
// status filter is applied here only for panels filtered in memory. Backend
// order is preserved.
func (a *Aggregator) Cards(d model.Domain, search string) ([]model.CardView, error) {
	snap, err := a.Panel(d)
	if err != nil {
		return nil, err
	}

	status := model.StatusAll
	if !serverFiltered(d) {
		status = snap.StatusFilter
	}
	cards := a.projector.ProjectAll(snap.Records)
	return filter.Apply(cards, search, status), nil
}

// Cancel asks the backend to cancel a reservation and, once acknowledged,
// marks the local record cancelled. The record stays in the list.
func (a *Aggregator) Cancel(ctx context.Context, d model.Domain, id string) (model.BookingRecord, error) {
	a.mu.Lock()
	p, ok := a.panels[d]
	if !ok {
		a.mu.Unlock()
		return model.BookingRecord{}, fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, d)
	}
	idx := indexOf(p.records, id)
	if idx < 0 {
		a.mu.Unlock()
		return model.BookingRecord{}, reserrors.ErrNotFound
	}
	rec := p.records[idx]
	if !rec.Cancelable() {
		a.mu.Unlock()
		a.metrics.observeCancel(d, outcomeRejected)
		return rec, reserrors.ErrNotCancelable
	}
	if _, busy := p.cancelling[id]; busy {
		a.mu.Unlock()
		a.metrics.observeCancel(d, outcomeRejected)
		return rec, reserrors.ErrCancelInFlight
	}
	p.cancelling[id] = struct{}{}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(p.cancelling, id)
		a.mu.Unlock()
	}()

	if err := a.mutate(ctx, d, id); err != nil {
		mutErr := &reserrors.MutationError{Domain: d, ID: id, Err: err}
		a.metrics.observeCancel(d, outcomeFailure)
		a.log.Error("Failed to cancel reservation", "domain", d, "id", id, "user_id", a.creds.UserID, "error", err)
		a.notify(func(n Notifier) { n.Error(d, mutErr.Error()) })
		return rec, mutErr
	}

	raw, err := adapter.RawFor(d, model.StatusCancelled)
	if err != nil {
		return rec, err
	}

	a.mu.Lock()
	p.acked[id] = raw
	patched := rec.WithStatus(raw, model.StatusCancelled)
	if i := indexOf(p.records, id); i >= 0 {
		patched = p.records[i].WithStatus(raw, model.StatusCancelled)
		p.records[i] = patched
	}
	a.mu.Unlock()

	a.metrics.observeCancel(d, outcomeSuccess)
	a.log.Info("Reservation cancelled", "domain", d, "id", id, "user_id", a.creds.UserID)
	a.notify(func(n Notifier) { n.Info(d, "Réservation annulée") })
	return patched, nil
}

func (a *Aggregator) mutate(ctx context.Context, d model.Domain, id string) error {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	switch d {
	case model.DomainLodging:
		return a.gw.CancelLodging(ctx, a.creds, id)
	case model.DomainService:
		return a.gw.CancelAppointment(ctx, a.creds, id)
	case model.DomainTicket:
		return a.gw.CancelTicket(ctx, a.creds, id)
	case model.DomainFlight:
		return a.gw.CancelFlight(ctx, a.creds, id)
	default:
		return errors.New("no cancel endpoint for domain " + string(d))
	}
}

func (a *Aggregator) Panel(d model.Domain) (Panel, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.panels[d]
	if !ok {
		return Panel{}, fmt.Errorf("%w: %q", reserrors.ErrUnknownDomain, d)
	}
	return snapshot(d, p), nil
}

// Panels returns every panel in display order.
func (a *Aggregator) Panels() []Panel {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Panel, 0, len(model.Domains))
	for _, d := range model.Domains {
		out = append(out, snapshot(d, a.panels[d]))
	}
	return out
}

func (a *Aggregator) Project(records []model.BookingRecord) []model.CardView {
	return a.projector.ProjectAll(records)
}

func (a *Aggregator) notify(fn func(Notifier)) {
	if a.notifier != nil {
		fn(a.notifier)
	}
}

func snapshot(d model.Domain, p *panel) Panel {
	records := make([]model.BookingRecord, len(p.records))
	copy(records, p.records)
	return Panel{
		Domain:       d,
		Records:      records,
		Loading:      p.loading,
		Err:          p.err,
		StatusFilter: p.statusFilter,
	}
}

func reapplyCancelled(records []model.BookingRecord, acked map[string]string) []model.BookingRecord {
	if len(acked) == 0 {
		return records
	}
	for i := range records {
		raw, ok := acked[records[i].ID]
		if ok && records[i].CanonicalStatus != model.StatusCancelled {
			records[i] = records[i].WithStatus(raw, model.StatusCancelled)
		}
	}
	return records
}

func indexOf(records []model.BookingRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
