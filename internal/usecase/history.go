package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

// HistoryParams describes one historical search invocation.
type HistoryParams struct {
	Term     string
	Kind     domain.TermKind
	FromDate string // DD-MM-YYYY
	ToDate   string // DD-MM-YYYY
	OrgID    string
	CasoID   string
	Save     bool
}

// HistoryDeps wires the archive search driver.
type HistoryDeps struct {
	Searcher  ports.ArchiveSearcher
	Recorder  *Recorder
	Logger    *slog.Logger
	MaxPages  int
	PageDelay time.Duration
}

// History pages through the public archive search for a single term,
// accumulating hits with an inter-page rate limit.
type History struct {
	searcher ports.ArchiveSearcher
	recorder *Recorder
	logger   *slog.Logger
	maxPages int
	limiter  *rate.Limiter
}

// NewHistory constructs the driver. MaxPages bounds one invocation's cost;
// the upstream imposes a ceiling anyway.
func NewHistory(deps HistoryDeps) *History {
	maxPages := deps.MaxPages
	if maxPages < 1 {
		maxPages = 1
	}
	delay := deps.PageDelay
	if delay <= 0 {
		delay = time.Second
	}
	return &History{
		searcher: deps.Searcher,
		recorder: deps.Recorder,
		logger:   deps.Logger,
		maxPages: maxPages,
		limiter:  rate.NewLimiter(rate.Every(delay), 1),
	}
}

// Run searches the archive and returns all accumulated hits. With Save set,
// every hit is persisted against the supplied organization and case.
func (h *History) Run(ctx context.Context, p HistoryParams) ([]domain.Publication, error) {
	if p.Term == "" {
		return nil, errors.New("search term is required")
	}
	if p.Kind == "" {
		p.Kind = domain.KindCaseNumber
	}
	if p.Save && (p.OrgID == "" || p.CasoID == "") {
		return nil, errors.New("saving results requires an organization and case id")
	}

	h.logger.Info("historical search started",
		"term", p.Term, "kind", p.Kind, "from", p.FromDate, "to", p.ToDate)

	var hits []domain.Publication
	for page := 1; page <= h.maxPages; page++ {
		if err := h.limiter.Wait(ctx); err != nil {
			return hits, err
		}

		result, err := h.searcher.Search(ctx, ports.SearchQuery{
			Term:     p.Term,
			FromDate: p.FromDate,
			ToDate:   p.ToDate,
			Page:     page,
		})
		if err != nil {
			return hits, fmt.Errorf("search page %d: %w", page, err)
		}

		hits = append(hits, result.Hits...)
		h.logger.Info("search page fetched",
			"page", page, "totalPages", result.TotalPages, "hits", len(result.Hits))

		if page >= result.TotalPages || len(result.Hits) == 0 {
			break
		}
	}

	h.logger.Info("historical search finished", "term", p.Term, "hits", len(hits))

	if p.Save && len(hits) > 0 {
		if err := h.saveAll(ctx, p, hits); err != nil {
			return hits, err
		}
	}

	return hits, nil
}

func (h *History) saveAll(ctx context.Context, p HistoryParams, hits []domain.Publication) error {
	term := domain.TrackedTerm{Term: p.Term, Kind: p.Kind, OrgID: p.OrgID, CasoID: p.CasoID}
	result := domain.MatchResult{Matched: true, Score: 1.0, Kind: p.Kind}

	saved := 0
	for _, hit := range hits {
		ok, err := h.recorder.Record(ctx, p.OrgID, p.CasoID, hit, term, result)
		if err != nil {
			return fmt.Errorf("save publication: %w", err)
		}
		if ok {
			saved++
		}
	}

	h.logger.Info("historical results saved",
		"saved", saved, "duplicates", len(hits)-saved)
	return nil
}
