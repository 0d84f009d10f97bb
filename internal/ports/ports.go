package ports

import (
	"context"
	"time"

	"DOUMonitor/internal/domain"
)

// SearchQuery carries the parameters of one archive search page request.
type SearchQuery struct {
	Term     string
	Section  string
	FromDate string // DD-MM-YYYY
	ToDate   string // DD-MM-YYYY
	Page     int
}

// SearchPage is one page of archive search results with pagination metadata.
type SearchPage struct {
	Hits        []domain.Publication
	TotalPages  int
	CurrentPage int
}

// BulletinSource downloads all publications of one gazette edition day.
type BulletinSource interface {
	FetchDaily(ctx context.Context, day time.Time) ([]domain.Publication, error)
}

// ArchiveSearcher queries the full-history public search endpoint.
type ArchiveSearcher interface {
	Search(ctx context.Context, q SearchQuery) (SearchPage, error)
}

// Directory reads tenant data: organizations, tracked terms and active cases.
type Directory interface {
	ListOrganizations(ctx context.Context) ([]domain.Organization, error)
	ListTrackedTerms(ctx context.Context, orgID string) ([]domain.TrackedTerm, error)
	ListMonitoredCases(ctx context.Context, orgID string) ([]domain.Caso, error)
}

// MatchStore persists matched publications. SaveMatch is an upsert keyed on
// (identifica, caso_id) that reports false for duplicates instead of failing.
type MatchStore interface {
	SaveMatch(ctx context.Context, m domain.PersistedMatch) (bool, error)
}

// SyncLog records one audit row per organization per sync run.
type SyncLog interface {
	RecordRun(ctx context.Context, run domain.SyncRun) error
}

// NotificationSink creates tenant notifications. Deployments without the
// destination table wire a nil sink.
type NotificationSink interface {
	Create(ctx context.Context, n domain.Notification) error
}

// TimelineSink appends case-timeline events. Optional like NotificationSink.
type TimelineSink interface {
	Append(ctx context.Context, e domain.TimelineEvent) error
}
