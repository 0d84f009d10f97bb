package gazette

import (
	"encoding/json"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"DOUMonitor/internal/domain"
	"DOUMonitor/internal/ports"
)

// The upstream embeds its payload in one of several shapes depending on the
// endpoint and page state. Each expression carves the candidate JSON out of
// the surrounding HTML.
var (
	hitsExpr       = regexp.MustCompile(`"hits"\s*:\s*(\[[\s\S]*?\])\s*,\s*"`)
	jsonArrayExpr  = regexp.MustCompile(`"jsonArray"\s*:\s*(\[[\s\S]*?\])\s*[,}]`)
	searchDataExpr = regexp.MustCompile(`var\s+searchData\s*=\s*(\{[\s\S]*?\});?\s*(?:var|\n|$)`)
	totalPagesExpr = regexp.MustCompile(`"totalPages"\s*:\s*(\d+)`)
	currPageExpr   = regexp.MustCompile(`"currentPage"\s*:\s*(\d+)`)

	trailingArrayComma  = regexp.MustCompile(`,\s*]`)
	trailingObjectComma = regexp.MustCompile(`,\s*}`)
)

// Extractor pulls structured publication records out of the semi-structured
// upstream responses. Unparsable payloads yield empty results, never errors:
// a format change upstream is an expected condition.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor wires the log sink used for discard reporting.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// ParseSearch extracts hits from a search-endpoint response. Strategies are
// tried in fixed order until one yields records: the "hits" array, the
// "jsonArray" array, then the full searchData object.
func (e *Extractor) ParseSearch(html string) ports.SearchPage {
	page := ports.SearchPage{CurrentPage: 1}

	if m := hitsExpr.FindStringSubmatch(html); m != nil {
		if raw := decodeArray(cleanJSON(m[1])); raw != nil {
			page.Hits = e.normalizeSearchHits(raw)
			if page.Hits != nil {
				page.TotalPages = findInt(totalPagesExpr, html, 1)
				page.CurrentPage = findInt(currPageExpr, html, 1)
			}
		}
	}

	if len(page.Hits) == 0 {
		if m := jsonArrayExpr.FindStringSubmatch(html); m != nil {
			// No quote rewriting here: the bulletin-shaped array is closer
			// to strict JSON and content strings may carry apostrophes.
			cleaned := trailingObjectComma.ReplaceAllString(m[1], "}")
			cleaned = trailingArrayComma.ReplaceAllString(cleaned, "]")
			if raw := decodeArray(cleaned); raw != nil {
				page.Hits = e.normalizeBulletinItems(raw)
			}
		}
	}

	if len(page.Hits) == 0 {
		if m := searchDataExpr.FindStringSubmatch(html); m != nil {
			var data map[string]any
			if err := json.Unmarshal([]byte(cleanJSON(m[1])), &data); err == nil {
				if rawHits, ok := data["hits"].([]any); ok {
					page.Hits = e.normalizeSearchHits(rawHits)
					page.TotalPages = intField(data, "totalPages")
					page.CurrentPage = intField(data, "currentPage")
					if page.CurrentPage == 0 {
						page.CurrentPage = 1
					}
				}
			}
		}
	}

	if len(page.Hits) == 0 {
		e.logger.Warn("no records extracted from search response")
		return ports.SearchPage{TotalPages: 0, CurrentPage: 1}
	}

	return page
}

// ParseBulletin extracts the day's publications from a bulletin response.
// The bulletin has exactly one expected shape: a script block with id
// "params" whose JSON carries the records in jsonArray. An absent block
// yields an empty result.
func (e *Extractor) ParseBulletin(html string) []domain.Publication {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Warn("bulletin response is not parseable HTML", "error", err)
		return nil
	}

	payload := strings.TrimSpace(doc.Find("script#params").First().Text())
	if payload == "" {
		e.logger.Warn("bulletin response has no params block")
		return nil
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		e.logger.Warn("bulletin params block is not valid JSON", "error", err)
		return nil
	}

	raw, _ := data["jsonArray"].([]any)
	return e.normalizeBulletinItems(raw)
}

// cleanJSON repairs the most common upstream deviations from strict JSON:
// trailing commas and single-quoted strings.
func cleanJSON(s string) string {
	s = trailingArrayComma.ReplaceAllString(s, "]")
	s = trailingObjectComma.ReplaceAllString(s, "}")
	s = strings.ReplaceAll(s, "'", `"`)
	return s
}

func decodeArray(s string) []any {
	var raw []any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil
	}
	return raw
}

func findInt(expr *regexp.Regexp, html string, fallback int) int {
	if m := expr.FindStringSubmatch(html); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return n
		}
	}
	return fallback
}

func intField(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	default:
		return 0
	}
}
