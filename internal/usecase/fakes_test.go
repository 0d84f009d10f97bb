package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore honors the dedup contract in memory: one row per
// (identifica, caso_id), an absent case counting as one value, and
// duplicates report false.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string]domain.PersistedMatch
	failure error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]domain.PersistedMatch{}}
}

func (s *fakeStore) SaveMatch(_ context.Context, m domain.PersistedMatch) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failure != nil {
		return false, s.failure
	}

	key := m.Identifica + "|" + m.CasoID
	if _, ok := s.rows[key]; ok {
		return false, nil
	}
	s.rows[key] = m
	return true, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

type fakeDirectory struct {
	orgs     []domain.Organization
	orgsErr  error
	terms    map[string][]domain.TrackedTerm
	termsErr map[string]error
	cases    map[string][]domain.Caso
}

func (d *fakeDirectory) ListOrganizations(context.Context) ([]domain.Organization, error) {
	return d.orgs, d.orgsErr
}

func (d *fakeDirectory) ListTrackedTerms(_ context.Context, orgID string) ([]domain.TrackedTerm, error) {
	if err := d.termsErr[orgID]; err != nil {
		return nil, err
	}
	return d.terms[orgID], nil
}

func (d *fakeDirectory) ListMonitoredCases(_ context.Context, orgID string) ([]domain.Caso, error) {
	return d.cases[orgID], nil
}

type fakeSyncLog struct {
	mu   sync.Mutex
	runs []domain.SyncRun
}

func (l *fakeSyncLog) RecordRun(_ context.Context, run domain.SyncRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, run)
	return nil
}

func (l *fakeSyncLog) all() []domain.SyncRun {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SyncRun(nil), l.runs...)
}

type fakeSource struct {
	mu    sync.Mutex
	pubs  []domain.Publication
	err   error
	calls int
}

func (s *fakeSource) FetchDaily(context.Context, time.Time) ([]domain.Publication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.pubs, s.err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
	failure       error
}

func (n *fakeNotifier) Create(_ context.Context, notification domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failure != nil {
		return n.failure
	}
	n.notifications = append(n.notifications, notification)
	return nil
}

type fakeTimeline struct {
	mu     sync.Mutex
	events []domain.TimelineEvent
}

func (tl *fakeTimeline) Append(_ context.Context, event domain.TimelineEvent) error {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.events = append(tl.events, event)
	return nil
}

// fakeSearcher serves pre-baked archive pages in order and keeps returning
// the last one when paging beyond it.
type fakeSearcher struct {
	pages   []ports.SearchPage
	queries []ports.SearchQuery
}

func (s *fakeSearcher) Search(_ context.Context, q ports.SearchQuery) (ports.SearchPage, error) {
	s.queries = append(s.queries, q)
	if len(s.pages) == 0 {
		return ports.SearchPage{}, errors.New("no pages configured")
	}
	idx := q.Page - 1
	if idx >= len(s.pages) {
		idx = len(s.pages) - 1
	}
	return s.pages[idx], nil
}
