package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/matching"
	"DOUMonitor/internal/ports"
)

const (
	// Content above this size is rejected before storage.
	maxContentBytes = 100_000
	// Stored content is cut to this many runes.
	storedContentRunes = 10_000
)

var (
	isoDateExpr    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	brSlashExpr    = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)
	brDashDateExpr = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
)

// RecorderDeps wires the stores and sinks behind match persistence.
// Notifications and Timeline may be nil when the deployment lacks those
// destinations.
type RecorderDeps struct {
	Store         ports.MatchStore
	Notifications ports.NotificationSink
	Timeline      ports.TimelineSink
	BaseURL       string
	Logger        *slog.Logger
}

// Recorder is the persistence/dedup layer: it validates, writes the match
// row idempotently and fires the best-effort side effects.
type Recorder struct {
	store         ports.MatchStore
	notifications ports.NotificationSink
	timeline      ports.TimelineSink
	baseURL       string
	logger        *slog.Logger
}

// NewRecorder constructs the persistence component.
func NewRecorder(deps RecorderDeps) *Recorder {
	return &Recorder{
		store:         deps.Store,
		notifications: deps.Notifications,
		timeline:      deps.Timeline,
		baseURL:       deps.BaseURL,
		logger:        deps.Logger,
	}
}

// Record persists one matched publication for an organization. It returns
// true only when the row is newly written; duplicates and validation
// rejections report false without an error. A returned error means the store
// itself failed.
func (r *Recorder) Record(ctx context.Context, orgID, casoID string, pub domain.Publication, term domain.TrackedTerm, res domain.MatchResult) (bool, error) {
	if reasons := r.validate(orgID, pub); len(reasons) > 0 {
		r.logger.Warn("publication rejected before persist", "reasons", strings.Join(reasons, ", "))
		return false, nil
	}

	pubType := matching.Classify(pub.Title, pub.Content)

	identifica := pub.Identifica
	if identifica == "" {
		identifica = pub.Title
	}
	if identifica == "" {
		identifica = pub.URLTitle
	}

	authority := pub.ArtCategory
	if authority == "" {
		authority = strings.Join(pub.HierarchyList, " > ")
	}

	var pubURL string
	if pub.URLTitle != "" {
		pubURL = r.baseURL + pub.URLTitle
	}

	section := pub.PubName
	if section == "" {
		section = "DO3"
	}

	saved, err := r.store.SaveMatch(ctx, domain.PersistedMatch{
		OrgID:      orgID,
		CasoID:     casoID,
		Section:    section,
		PubDate:    normalizePubDate(pub.PubDate),
		Title:      pub.Title,
		Content:    truncateRunes(pub.Content, storedContentRunes),
		Authority:  authority,
		Type:       pubType,
		URL:        pubURL,
		Identifica: identifica,
		Page:       pub.NumberPage,
		Term:       term.Term,
		MatchKind:  res.Kind,
		Score:      res.Score,
		Raw: domain.RawMeta{
			ArtType:       pub.ArtType,
			ArtCategory:   pub.ArtCategory,
			EditionNumber: pub.EditionNumber,
			URLTitle:      pub.URLTitle,
		},
	})
	if err != nil {
		return false, fmt.Errorf("save match: %w", err)
	}
	if !saved {
		return false, nil
	}

	r.notify(ctx, orgID, casoID, pub, term, pubType)
	r.appendTimeline(ctx, casoID, pub, pubType)

	return true, nil
}

// notify creates the tenant alert. Failures never undo the committed match.
func (r *Recorder) notify(ctx context.Context, orgID, casoID string, pub domain.Publication, term domain.TrackedTerm, pubType domain.PubType) {
	if r.notifications == nil {
		return
	}

	n := domain.Notification{
		OrgID:       orgID,
		CasoID:      casoID,
		Title:       "Nova publicação no DOU",
		Description: fmt.Sprintf("%s: %q - encontrado por %q", pubType.Label(), truncateRunes(pub.Title, 100), term.Term),
		Priority:    "P1",
		Type:        "dou",
	}
	if casoID != "" {
		n.LinkURL = "/casos/" + casoID
		n.LinkLabel = "Ver caso"
	}

	if err := r.notifications.Create(ctx, n); err != nil {
		r.logger.Error("create notification", "org", orgID, "error", err)
	}
}

func (r *Recorder) appendTimeline(ctx context.Context, casoID string, pub domain.Publication, pubType domain.PubType) {
	if r.timeline == nil || casoID == "" {
		return
	}

	event := domain.TimelineEvent{
		CasoID:      casoID,
		Title:       "Publicação DOU: " + truncateRunes(pub.Title, 100),
		Description: fmt.Sprintf("%s encontrada no DOU Seção 3 de %s", pubType.Label(), pub.PubDate),
		Category:    "juridico",
		Channel:     "dou_bot",
		Date:        normalizePubDate(pub.PubDate),
	}

	if err := r.timeline.Append(ctx, event); err != nil {
		r.logger.Error("append timeline event", "caso", casoID, "error", err)
	}
}

func (r *Recorder) validate(orgID string, pub domain.Publication) []string {
	var reasons []string

	if _, err := uuid.Parse(orgID); err != nil {
		reasons = append(reasons, "org_id malformed")
	}

	if strings.TrimSpace(pub.Title) == "" {
		reasons = append(reasons, "empty title")
	}

	if pub.PubDate == "" {
		reasons = append(reasons, "missing publication date")
	} else if !isoDateExpr.MatchString(pub.PubDate) &&
		!brSlashExpr.MatchString(pub.PubDate) &&
		!brDashDateExpr.MatchString(pub.PubDate) {
		reasons = append(reasons, "unparseable publication date "+pub.PubDate)
	}

	if len(pub.Content) > maxContentBytes {
		reasons = append(reasons, "content exceeds 100KB")
	}

	return reasons
}

// normalizePubDate converts DD/MM/YYYY and DD-MM-YYYY to YYYY-MM-DD.
// Anything else passes through unchanged.
func normalizePubDate(dateStr string) string {
	if parts := strings.Split(dateStr, "/"); len(parts) == 3 {
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	if parts := strings.Split(dateStr, "-"); len(parts) == 3 && len(parts[0]) <= 2 {
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	return dateStr
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
