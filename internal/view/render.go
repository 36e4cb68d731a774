package view

import (
	"strings"

	"github.com/DeafMist/notice-radar/internal/processing"
)

// LinkLabel is the visible text of every row's link cell.
const LinkLabel = "Abrir"

// InvalidDate is rendered in place of a missing or unparseable timestamp.
const InvalidDate = "Invalid Date"

// Row is one rendered table row. Title and Summary are already escaped; Href
// is the record URL exactly as received and is escaped only when the row is
// serialized, so a parsed anchor carries the raw URL.
type Row struct {
	DiscoveredAt string
	Title        string
	Summary      string
	Href         string
}

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeHTML replaces & < > " ' with their entities. It is not idempotent:
// an already escaped "&amp;" becomes "&amp;amp;".
func EscapeHTML(s string) string {
	if s == "" {
		return ""
	}
	return htmlEscaper.Replace(s)
}

// FormatTimestamp renders raw as "YYYY-MM-DD HH:MM:SS UTC", dropping
// fractional seconds.
func FormatTimestamp(raw string) string {
	ts, ok := processing.ParseTimestamp(raw)
	if !ok {
		return InvalidDate
	}
	return ts.Format("2006-01-02 15:04:05") + " UTC"
}

// BuildRow renders one record.
func BuildRow(rec DocumentRecord) Row {
	return Row{
		DiscoveredAt: FormatTimestamp(rec.DiscoveredAt),
		Title:        EscapeHTML(rec.Title),
		Summary:      EscapeHTML(rec.Summary),
		Href:         rec.URL,
	}
}
