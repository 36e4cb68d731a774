package view

import "strings"

// Matches reports whether rec passes the search query. The empty query
// matches everything; otherwise the lowercased query must occur in the
// lowercased title or, when present, the lowercased URL.
func Matches(rec DocumentRecord, query string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(rec.Title), q) {
		return true
	}
	return rec.URL != "" && strings.Contains(strings.ToLower(rec.URL), q)
}

// Filter renders the records matching query, keeping server order.
func Filter(records []DocumentRecord, query string) []Row {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		if !Matches(rec, query) {
			continue
		}
		rows = append(rows, BuildRow(rec))
	}
	return rows
}
