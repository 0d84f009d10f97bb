package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/matching"
	"DOUMonitor/internal/ports"
)

// SyncDeps wires the daily batch orchestrator.
type SyncDeps struct {
	Source    ports.BulletinSource
	Directory ports.Directory
	SyncLog   ports.SyncLog
	Recorder  *Recorder
	Engine    *matching.Engine
	Logger    *slog.Logger
	Location  *time.Location
	Workers   int
}

// Sync runs the daily matching batch: one gazette edition against every
// organization's tracked terms.
type Sync struct {
	source    ports.BulletinSource
	directory ports.Directory
	syncLog   ports.SyncLog
	recorder  *Recorder
	engine    *matching.Engine
	logger    *slog.Logger
	location  *time.Location
	workers   int
}

// NewSync constructs the orchestrator.
func NewSync(deps SyncDeps) *Sync {
	workers := deps.Workers
	if workers < 1 {
		workers = 1
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	return &Sync{
		source:    deps.Source,
		directory: deps.Directory,
		syncLog:   deps.SyncLog,
		recorder:  deps.Recorder,
		engine:    deps.Engine,
		logger:    deps.Logger,
		location:  location,
		workers:   workers,
	}
}

// Run executes one sync for the given date. It returns an error only for the
// two fatal preconditions: the bulletin cannot be fetched or the organization
// list cannot be loaded. Everything narrower is isolated per organization.
func (s *Sync) Run(ctx context.Context, day time.Time) error {
	day = day.In(s.location)
	dateStr := day.Format("2006-01-02")

	// The gazette is not published on weekends.
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		s.logger.Info("weekend, skipping sync", "date", dateStr)
		return nil
	}

	s.logger.Info("sync started", "date", dateStr)
	start := time.Now()

	publications, err := s.source.FetchDaily(ctx, day)
	if err != nil {
		return fmt.Errorf("fetch daily bulletin: %w", err)
	}

	if len(publications) == 0 {
		s.logger.Warn("no publications found (holiday or empty edition)", "date", dateStr)
		return nil
	}
	s.logger.Info("publications loaded", "date", dateStr, "count", len(publications))

	orgs, err := s.directory.ListOrganizations(ctx)
	if err != nil {
		return fmt.Errorf("load organizations: %w", err)
	}
	if len(orgs) == 0 {
		s.logger.Warn("no organizations to process")
		return nil
	}
	s.logger.Info("processing organizations", "count", len(orgs))

	var totalMatches atomic.Int64

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, org := range orgs {
		org := org
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			totalMatches.Add(int64(s.processOrg(groupCtx, org.ID, dateStr, publications)))
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	s.logger.Info("sync finished",
		"date", dateStr,
		"matches", totalMatches.Load(),
		"elapsed", time.Since(start))
	return nil
}

// processOrg handles one organization in isolation: any failure, panics
// included, is logged and recorded in that organization's run row without
// touching the others.
func (s *Sync) processOrg(ctx context.Context, orgID, dateStr string, publications []domain.Publication) (matches int) {
	orgStart := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("organization processing panicked", "org", orgID, "panic", rec)
			s.recordRun(ctx, domain.SyncRun{
				OrgID:    orgID,
				Date:     dateStr,
				Duration: time.Since(orgStart),
				Error:    fmt.Sprintf("panic: %v", rec),
			})
			matches = 0
		}
	}()

	terms, err := s.resolveTerms(ctx, orgID)
	if err != nil {
		s.logger.Error("resolve terms", "org", orgID, "error", err)
		s.recordRun(ctx, domain.SyncRun{
			OrgID:    orgID,
			Date:     dateStr,
			Duration: time.Since(orgStart),
			Error:    err.Error(),
		})
		return 0
	}

	if len(terms) == 0 {
		s.logger.Info("organization has no terms, skipping", "org", orgID)
		return 0
	}

	for _, pub := range publications {
		for _, term := range terms {
			result := s.engine.Match(pub, term)
			if !result.Matched {
				continue
			}

			saved, err := s.recorder.Record(ctx, orgID, term.CasoID, pub, term, result)
			if err != nil {
				s.logger.Error("record match", "org", orgID, "error", err)
				s.recordRun(ctx, domain.SyncRun{
					OrgID:    orgID,
					Date:     dateStr,
					Terms:    len(terms),
					Matches:  matches,
					Duration: time.Since(orgStart),
					Error:    err.Error(),
				})
				return matches
			}
			if saved {
				matches++
			}
		}
	}

	duration := time.Since(orgStart)
	s.recordRun(ctx, domain.SyncRun{
		OrgID:    orgID,
		Date:     dateStr,
		Terms:    len(terms),
		Matches:  matches,
		Duration: duration,
	})
	s.logger.Info("organization processed",
		"org", orgID, "matches", matches, "terms", len(terms), "elapsed", duration)
	return matches
}

// resolveTerms loads the explicit monitored terms; when none exist, one
// case-number term is derived per monitored active case.
func (s *Sync) resolveTerms(ctx context.Context, orgID string) ([]domain.TrackedTerm, error) {
	terms, err := s.directory.ListTrackedTerms(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load tracked terms: %w", err)
	}
	if len(terms) > 0 {
		return terms, nil
	}

	casos, err := s.directory.ListMonitoredCases(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load monitored cases: %w", err)
	}

	derived := make([]domain.TrackedTerm, 0, len(casos))
	for _, caso := range casos {
		derived = append(derived, domain.TrackedTerm{
			Term:   caso.NumeroProc,
			Kind:   domain.KindCaseNumber,
			OrgID:  orgID,
			CasoID: caso.ID,
		})
	}
	return derived, nil
}

func (s *Sync) recordRun(ctx context.Context, run domain.SyncRun) {
	if err := s.syncLog.RecordRun(ctx, run); err != nil {
		s.logger.Error("record sync run", "org", run.OrgID, "error", err)
	}
}
