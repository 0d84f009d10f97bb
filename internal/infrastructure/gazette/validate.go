package gazette

import "DOUMonitor/internal/domain"

// The upstream payloads are duck-typed: fields come and go between page
// states. Records are normalized against two minimal schemas, search hits
// need a title and a date, bulletin items only need title-or-content.
// Anything failing the required fields is dropped and counted. Dropped
// records are an observability signal, not an error.

func (e *Extractor) normalizeSearchHits(raw []any) []domain.Publication {
	var valid []domain.Publication
	discarded := 0

	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			discarded++
			continue
		}

		pub := publicationFrom(fields)
		if pub.Title == "" || pub.PubDate == "" {
			discarded++
			continue
		}
		valid = append(valid, pub)
	}

	if discarded > 0 {
		e.logger.Warn("search hits discarded by validation", "count", discarded)
	}

	return valid
}

func (e *Extractor) normalizeBulletinItems(raw []any) []domain.Publication {
	var valid []domain.Publication
	discarded := 0

	for _, item := range raw {
		fields, ok := item.(map[string]any)
		if !ok {
			discarded++
			continue
		}

		pub := publicationFrom(fields)
		if pub.Title == "" && pub.Content == "" {
			discarded++
			continue
		}
		if pub.Title == "" {
			pub.Title = "Sem titulo"
		}
		valid = append(valid, pub)
	}

	if discarded > 0 {
		e.logger.Warn("bulletin items discarded by validation", "count", discarded)
	}

	return valid
}

func publicationFrom(fields map[string]any) domain.Publication {
	pub := domain.Publication{
		Title:         str(fields, "title"),
		Content:       str(fields, "content"),
		PubDate:       str(fields, "pubDate"),
		PubName:       str(fields, "pubName"),
		ArtType:       str(fields, "artType"),
		ArtCategory:   str(fields, "artCategory"),
		NumberPage:    str(fields, "numberPage"),
		EditionNumber: str(fields, "editionNumber"),
		URLTitle:      str(fields, "urlTitle"),
		ClassPK:       str(fields, "classPK"),
		Identifica:    str(fields, "identifica"),
		HierarchyList: strList(fields, "hierarchyList"),
	}
	if pub.PubName == "" {
		pub.PubName = "DO3"
	}
	return pub
}

func str(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func strList(fields map[string]any, key string) []string {
	raw, ok := fields[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
