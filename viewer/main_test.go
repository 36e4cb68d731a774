package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/notice-radar/internal/view"
)

type countingSource struct {
	mu      sync.Mutex
	records []view.DocumentRecord
	calls   int
}

func (s *countingSource) FetchDocuments(context.Context, view.FetchParams) (view.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return view.Page{Records: s.records}, nil
}

func TestReadCommandsDispatchesEvents(t *testing.T) {
	src := &countingSource{records: []view.DocumentRecord{
		{Title: "Aviso", URL: "http://x/a", DiscoveredAt: "2024-03-01T14:05:09Z"},
		{Title: "Calendario", URL: "http://x/c", DiscoveredAt: "2024-03-02T00:00:00Z"},
	}}
	table := view.NewHTMLTable()
	v := view.New(src, table)

	input := &view.Field{}
	trigger := &view.Button{}
	v.Attach(context.Background(), input, trigger)

	readCommands(context.Background(), strings.NewReader("aviso\n:r\n:q\nignored\n"), input, trigger)
	v.Wait()

	require.Equal(t, 2, src.calls)
	require.Equal(t, "aviso", input.Value())
	rows := table.Rows()
	require.Len(t, rows, 1)
	require.Equal(t, "Aviso", rows[0].Title)
}

func TestTerminalTablePlainAndHTML(t *testing.T) {
	row := view.Row{DiscoveredAt: "2024-03-01 14:05:09 UTC", Title: "&lt;b&gt;", Href: "http://x/a"}

	var plain bytes.Buffer
	tt := &terminalTable{w: &plain}
	tt.Clear()
	tt.Append(row)
	require.Equal(t, "----\n2024-03-01 14:05:09 UTC | &lt;b&gt; |  | Abrir -> http://x/a\n", plain.String())

	var html bytes.Buffer
	tt = &terminalTable{w: &html, html: true}
	tt.Append(row)
	require.Equal(t, view.RowHTML(row), html.String())
}
