package domain

import "time"

// Publication is one gazette entry extracted from an upstream response.
// Field names mirror the upstream payload; Identifica, when present, is the
// stable key used for deduplication.
type Publication struct {
	Title         string
	Content       string
	PubDate       string
	PubName       string
	ArtType       string
	ArtCategory   string
	NumberPage    string
	EditionNumber string
	URLTitle      string
	HierarchyList []string
	ClassPK       string
	Identifica    string
}

// TermKind enumerates the closed set of tracked-term types.
type TermKind string

const (
	KindCaseNumber TermKind = "numero_processo"
	KindPartyName  TermKind = "nome_parte"
	KindBar        TermKind = "oab"
	KindCustom     TermKind = "custom"
)

// ParseTermKind maps a raw kind string to a TermKind, defaulting to custom.
func ParseTermKind(raw string) TermKind {
	switch TermKind(raw) {
	case KindCaseNumber, KindPartyName, KindBar:
		return TermKind(raw)
	default:
		return KindCustom
	}
}

// TrackedTerm is a value an organization wants matched against publications.
type TrackedTerm struct {
	Term   string
	Kind   TermKind
	OrgID  string
	CasoID string
}

// MatchResult is the outcome of matching one publication against one term.
// Matched implies Score > 0; no match implies Score == 0.
type MatchResult struct {
	Matched bool
	Score   float64
	Kind    TermKind
}

// PubType classifies the legal act a publication represents.
type PubType string

const (
	PubIntimacao PubType = "intimacao"
	PubCitacao   PubType = "citacao"
	PubEdital    PubType = "edital"
	PubDespacho  PubType = "despacho"
	PubSentenca  PubType = "sentenca"
	PubOutro     PubType = "outro"
)

// Label returns the human-readable name used in notifications.
func (t PubType) Label() string {
	switch t {
	case PubIntimacao:
		return "Intimação"
	case PubCitacao:
		return "Citação"
	case PubEdital:
		return "Edital"
	case PubDespacho:
		return "Despacho"
	case PubSentenca:
		return "Sentença"
	default:
		return "Publicação"
	}
}

// PersistedMatch is the durable row written for a successful match.
// Unique per (Identifica, CasoID); a second write for the same pair no-ops.
type PersistedMatch struct {
	OrgID      string
	CasoID     string
	Section    string
	PubDate    string
	Title      string
	Content    string
	Authority  string
	Type       PubType
	URL        string
	Identifica string
	Page       string
	Term       string
	MatchKind  TermKind
	Score      float64
	Read       bool
	Notified   bool
	Raw        RawMeta
}

// RawMeta preserves upstream fields that have no dedicated column.
type RawMeta struct {
	ArtType       string `json:"artType"`
	ArtCategory   string `json:"artCategory"`
	EditionNumber string `json:"editionNumber"`
	URLTitle      string `json:"urlTitle"`
}

// SyncRun is the audit record written once per organization per sync.
type SyncRun struct {
	OrgID    string
	Date     string
	Terms    int
	Matches  int
	Duration time.Duration
	Error    string
}

// Organization is the minimal tenant view needed by the sync orchestrator.
type Organization struct {
	ID string
}

// Caso is an active case that opted into gazette monitoring.
type Caso struct {
	ID         string
	NumeroProc string
	Titulo     string
}

// Notification is the best-effort alert written after a new match.
type Notification struct {
	OrgID       string
	CasoID      string
	Title       string
	Description string
	Priority    string
	Type        string
	LinkURL     string
	LinkLabel   string
}

// TimelineEvent is the best-effort case-timeline entry for a new match.
type TimelineEvent struct {
	CasoID      string
	Title       string
	Description string
	Category    string
	Channel     string
	Date        string
}
