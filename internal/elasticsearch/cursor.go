package elasticsearch

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxListSize caps a single listing request.
const MaxListSize = 1000

// ErrInvalidCursor is returned for cursors this package did not produce.
var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor points just past the last document of a page: its discovery time in
// epoch milliseconds and its ID as a tie breaker.
type Cursor struct {
	DiscoveredAtMillis int64
	ID                 string
}

// Encode renders the cursor as "<millis>|<id>".
func (c Cursor) Encode() string {
	return strconv.FormatInt(c.DiscoveredAtMillis, 10) + "|" + c.ID
}

// DecodeCursor parses a value produced by Cursor.Encode.
func DecodeCursor(raw string) (Cursor, error) {
	millis, id, ok := strings.Cut(raw, "|")
	if !ok || id == "" {
		return Cursor{}, ErrInvalidCursor
	}
	ms, err := strconv.ParseInt(millis, 10, 64)
	if err != nil {
		return Cursor{}, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return Cursor{DiscoveredAtMillis: ms, ID: id}, nil
}

func buildListBody(params ListParams) (map[string]any, error) {
	size := params.Limit
	if size <= 0 {
		size = 100
	}
	if size > MaxListSize {
		size = MaxListSize
	}

	body := map[string]any{
		"size": size,
		"query": map[string]any{
			"match_all": map[string]any{},
		},
		"sort": []map[string]any{
			{"discovered_at": map[string]any{"order": "desc"}},
			{"id": map[string]any{"order": "asc"}},
		},
	}

	if params.Cursor != "" {
		cur, err := DecodeCursor(params.Cursor)
		if err != nil {
			return nil, err
		}
		body["search_after"] = []any{cur.DiscoveredAtMillis, cur.ID}
	}

	return body, nil
}

func cursorFromSort(values []json.RawMessage) (string, error) {
	if len(values) != 2 {
		return "", fmt.Errorf("expected 2 sort values, got %d", len(values))
	}
	var ms int64
	if err := json.Unmarshal(values[0], &ms); err != nil {
		return "", fmt.Errorf("decode sort time: %w", err)
	}
	var id string
	if err := json.Unmarshal(values[1], &id); err != nil {
		return "", fmt.Errorf("decode sort id: %w", err)
	}
	return Cursor{DiscoveredAtMillis: ms, ID: id}.Encode(), nil
}
