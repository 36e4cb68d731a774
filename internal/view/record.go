package view

import "context"

// DefaultPageSize is the number of records a refresh asks for when the view
// is not configured otherwise.
const DefaultPageSize = 200

// DocumentRecord is one item of the document listing as the endpoint sends
// it. Absent text fields decode to the empty string.
type DocumentRecord struct {
	Title        string `json:"title"`
	Summary      string `json:"summary"`
	URL          string `json:"url"`
	DiscoveredAt string `json:"discovered_at"`
}

// FetchParams bound a single listing request.
type FetchParams struct {
	Limit  int
	Cursor string
}

// Page is the result of one listing request. NextCursor is empty on the last
// page.
type Page struct {
	Records    []DocumentRecord
	NextCursor string
}

// Source lists documents. Implementations issue exactly one request per call.
type Source interface {
	FetchDocuments(ctx context.Context, params FetchParams) (Page, error)
}
