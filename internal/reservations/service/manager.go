package service

import (
	"context"
	"time"

	reserrors "marketplace/internal/reservations/errors"
	"marketplace/pkg/client"
	"marketplace/pkg/notify"
	"marketplace/pkg/session"
)

// Workspace is the per-session state: one aggregator and its toast inbox.
type Workspace struct {
	Aggregator *Aggregator
	Inbox      *notify.Inbox
}

// Manager owns the session registry. Logging out drops the workspace.
type Manager struct {
	deps     AggregatorDeps
	registry *session.Registry[*Workspace]
}

func NewManager(deps AggregatorDeps, registry *session.Registry[*Workspace]) *Manager {
	m := &Manager{deps: deps, registry: registry}
	registry.OnClose(func(s *session.Session[*Workspace]) {
		if deps.Log != nil {
			deps.Log.Info("Reservation session closed", "user_id", s.UserID)
		}
	})
	return m
}

func (m *Manager) Open(userID, backendToken string) *session.Session[*Workspace] {
	inbox := notify.NewInbox(notify.DefaultCapacity)
	deps := m.deps
	deps.Notifier = inbox

	creds := client.Credentials{UserID: userID, Token: backendToken}
	ws := &Workspace{
		Aggregator: NewAggregator(deps, creds),
		Inbox:      inbox,
	}
	s := m.registry.Open(userID, backendToken, ws)
	if m.deps.Log != nil {
		m.deps.Log.Info("Reservation session opened", "user_id", userID)
	}
	return s
}

func (m *Manager) Get(token string) (*session.Session[*Workspace], error) {
	s, ok := m.registry.Get(token)
	if !ok {
		return nil, reserrors.ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Close(token string) error {
	if !m.registry.Close(token) {
		return reserrors.ErrSessionNotFound
	}
	return nil
}

// RunSweeper drops expired sessions every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.registry.Sweep(); n > 0 && m.deps.Log != nil {
				m.deps.Log.Info("Expired reservation sessions removed", "count", n)
			}
		}
	}
}
