package view

import (
	"strings"
	"sync"
)

// Table is the render target of a DocumentListView.
type Table interface {
	Clear()
	Append(row Row)
}

// HTMLTable keeps rendered rows in memory and writes them as the body of an
// HTML results table. Safe for concurrent use.
type HTMLTable struct {
	mu   sync.RWMutex
	rows []Row
}

// NewHTMLTable returns an empty table.
func NewHTMLTable() *HTMLTable {
	return &HTMLTable{}
}

func (t *HTMLTable) Clear() {
	t.mu.Lock()
	t.rows = t.rows[:0]
	t.mu.Unlock()
}

func (t *HTMLTable) Append(row Row) {
	t.mu.Lock()
	t.rows = append(t.rows, row)
	t.mu.Unlock()
}

// Rows returns a copy of the current rows.
func (t *HTMLTable) Rows() []Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Len returns the number of rows.
func (t *HTMLTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// HTML renders the rows as <tr> elements, ready to be placed inside <tbody>.
func (t *HTMLTable) HTML() string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var b strings.Builder
	for _, row := range t.rows {
		writeRow(&b, row)
	}
	return b.String()
}

// RowHTML renders a single row.
func RowHTML(row Row) string {
	var b strings.Builder
	writeRow(&b, row)
	return b.String()
}

func writeRow(b *strings.Builder, row Row) {
	b.WriteString("<tr><td>")
	b.WriteString(row.DiscoveredAt)
	b.WriteString("</td><td>")
	b.WriteString(row.Title)
	b.WriteString("</td><td>")
	b.WriteString(row.Summary)
	b.WriteString(`</td><td><a class="linkbtn" href="`)
	b.WriteString(EscapeHTML(row.Href))
	b.WriteString(`" target="_blank">`)
	b.WriteString(LinkLabel)
	b.WriteString("</a></td></tr>\n")
}
