package matching

import (
	"regexp"
	"strings"

	"DOUMonitor/internal/config"
	"DOUMonitor/internal/domain"
)

var (
	nonDigits = regexp.MustCompile(`\D`)
	oabExpr   = regexp.MustCompile(`(?i)oab[\s/]*[a-z]{2}\s*\d+`)
)

// Engine decides whether a publication matches a tracked term and how
// relevant the match is. It is pure: no I/O, no state beyond the tuned
// thresholds it was built with.
type Engine struct {
	minCaseDigits  int
	nameWordRatio  float64
	nameWordFloor  int
	nameWordMinLen int
}

// NewEngine builds an engine from the matching configuration.
func NewEngine(cfg config.MatchingConfig) *Engine {
	return &Engine{
		minCaseDigits:  cfg.MinCaseDigits,
		nameWordRatio:  cfg.NameWordRatio,
		nameWordFloor:  cfg.NameWordFloor,
		nameWordMinLen: cfg.NameWordMinLen,
	}
}

// Match evaluates one (publication, term) pair. Matching is case-insensitive
// over the concatenation of title and content.
func (e *Engine) Match(pub domain.Publication, term domain.TrackedTerm) domain.MatchResult {
	text := strings.ToLower(pub.Title) + " " + strings.ToLower(pub.Content)
	needle := strings.ToLower(strings.TrimSpace(term.Term))

	switch term.Kind {
	case domain.KindCaseNumber:
		return e.matchCaseNumber(text, needle)
	case domain.KindPartyName:
		return e.matchPartyName(text, needle)
	case domain.KindBar:
		return e.matchBar(text, needle)
	case domain.KindCustom:
		return matchCustom(text, needle)
	default:
		return matchCustom(text, needle)
	}
}

func (e *Engine) matchCaseNumber(text, term string) domain.MatchResult {
	// Exact formatted number, e.g. 1234567-89.2024.8.26.0100.
	if term != "" && strings.Contains(text, term) {
		return domain.MatchResult{Matched: true, Score: 1.0, Kind: domain.KindCaseNumber}
	}

	// Digits-only fallback: punctuation in either side must not hide a hit.
	digits := nonDigits.ReplaceAllString(term, "")
	if len(digits) >= e.minCaseDigits {
		if strings.Contains(nonDigits.ReplaceAllString(text, ""), digits) {
			return domain.MatchResult{Matched: true, Score: 0.8, Kind: domain.KindCaseNumber}
		}
	}

	return domain.MatchResult{Kind: domain.KindCaseNumber}
}

func (e *Engine) matchPartyName(text, term string) domain.MatchResult {
	if term != "" && strings.Contains(text, term) {
		return domain.MatchResult{Matched: true, Score: 0.7, Kind: domain.KindPartyName}
	}

	// Partial: enough of the meaningful words must appear on their own.
	var words []string
	for _, w := range strings.Fields(term) {
		if len([]rune(w)) > e.nameWordMinLen {
			words = append(words, w)
		}
	}
	if len(words) >= 2 {
		found := 0
		for _, w := range words {
			if strings.Contains(text, w) {
				found++
			}
		}
		if found >= e.nameWordFloor && float64(found) >= float64(len(words))*e.nameWordRatio {
			return domain.MatchResult{Matched: true, Score: 0.5, Kind: domain.KindPartyName}
		}
	}

	return domain.MatchResult{Kind: domain.KindPartyName}
}

func (e *Engine) matchBar(text, term string) domain.MatchResult {
	if term == "" {
		return domain.MatchResult{Kind: domain.KindBar}
	}

	if oabExpr.MatchString(text) && strings.Contains(text, term) {
		return domain.MatchResult{Matched: true, Score: 0.6, Kind: domain.KindBar}
	}

	if strings.Contains(text, term) {
		return domain.MatchResult{Matched: true, Score: 0.6, Kind: domain.KindBar}
	}

	return domain.MatchResult{Kind: domain.KindBar}
}

func matchCustom(text, term string) domain.MatchResult {
	if term != "" && strings.Contains(text, term) {
		return domain.MatchResult{Matched: true, Score: 0.4, Kind: domain.KindCustom}
	}
	return domain.MatchResult{Kind: domain.KindCustom}
}

// Classify infers the legal-act type from title and content. The first
// keyword family that matches wins.
func Classify(title, content string) domain.PubType {
	text := strings.ToLower(title + " " + content)

	switch {
	case containsAny(text, "intimação", "intimar", "intimacao"):
		return domain.PubIntimacao
	case containsAny(text, "citação", "citar", "citacao"):
		return domain.PubCitacao
	case strings.Contains(text, "edital"):
		return domain.PubEdital
	case strings.Contains(text, "despacho"):
		return domain.PubDespacho
	case containsAny(text, "sentença", "sentenca"):
		return domain.PubSentenca
	default:
		return domain.PubOutro
	}
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
