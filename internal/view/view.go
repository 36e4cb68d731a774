// Package view fetches the document listing, filters it by a search query and
// renders the matching documents into a results table.
package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/DeafMist/notice-radar/internal/logger"
)

// ErrStale is returned by Refresh when a newer refresh was issued while this
// one was waiting for its response. The table is left untouched.
var ErrStale = errors.New("view: stale response discarded")

// QueryInput is the search field the view listens to.
type QueryInput interface {
	Value() string
	OnInput(fn func(value string))
}

// Trigger is an explicit refresh action.
type Trigger interface {
	OnActivate(fn func())
}

// DocumentListView keeps a results table in sync with the document listing.
type DocumentListView struct {
	source  Source
	table   Table
	params  FetchParams
	log     *slog.Logger
	onError func(error)

	issued atomic.Uint64
	mu     sync.Mutex
	wg     sync.WaitGroup
}

// Option customizes a DocumentListView.
type Option func(*DocumentListView)

// WithPageSize sets how many records each refresh requests.
func WithPageSize(n int) Option {
	return func(v *DocumentListView) {
		if n > 0 {
			v.params.Limit = n
		}
	}
}

// WithCursor starts listing from a continuation cursor instead of the newest
// document.
func WithCursor(cursor string) Option {
	return func(v *DocumentListView) {
		v.params.Cursor = cursor
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(v *DocumentListView) {
		if log != nil {
			v.log = log
		}
	}
}

// WithErrorHandler receives failures of refreshes started by input or
// trigger events. Stale responses are not reported.
func WithErrorHandler(fn func(error)) Option {
	return func(v *DocumentListView) {
		v.onError = fn
	}
}

// New builds a view that lists documents from source into table.
func New(source Source, table Table, opts ...Option) *DocumentListView {
	v := &DocumentListView{
		source: source,
		table:  table,
		params: FetchParams{Limit: DefaultPageSize},
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Params returns the fetch parameters every refresh uses.
func (v *DocumentListView) Params() FetchParams {
	return v.params
}

// Refresh fetches one page of documents and replaces the table contents
// with the rows matching query. On a fetch failure the table keeps its
// previous rows. When another refresh was issued after this one, the
// response is dropped and ErrStale returned.
func (v *DocumentListView) Refresh(ctx context.Context, query string) error {
	seq := v.issued.Add(1)

	page, err := v.source.FetchDocuments(ctx, v.params)
	if err != nil {
		return fmt.Errorf("fetch documents: %w", err)
	}

	rows := Filter(page.Records, query)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.issued.Load() {
		v.log.Debug("dropping stale response",
			slog.Uint64("seq", seq),
			slog.String("query", query),
		)
		return ErrStale
	}

	v.table.Clear()
	for _, row := range rows {
		v.table.Append(row)
	}

	v.log.Debug("table refreshed",
		slog.Uint64("seq", seq),
		slog.String("query", query),
		slog.Int("fetched", len(page.Records)),
		slog.Int("rendered", len(rows)),
	)
	return nil
}

// Attach wires the query input and the refresh trigger. Every input change
// and every trigger activation starts a refresh in its own goroutine;
// nothing is debounced or cancelled.
func (v *DocumentListView) Attach(ctx context.Context, input QueryInput, trigger Trigger) {
	if input != nil {
		input.OnInput(func(value string) {
			v.dispatch(ctx, value)
		})
	}
	if trigger != nil {
		trigger.OnActivate(func() {
			query := ""
			if input != nil {
				query = input.Value()
			}
			v.dispatch(ctx, query)
		})
	}
}

// Start performs the initial refresh with an empty query.
func (v *DocumentListView) Start(ctx context.Context) error {
	return v.Refresh(ctx, "")
}

// Wait blocks until every event-started refresh has finished.
func (v *DocumentListView) Wait() {
	v.wg.Wait()
}

func (v *DocumentListView) dispatch(ctx context.Context, query string) {
	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		err := v.Refresh(ctx, query)
		if err == nil || errors.Is(err, ErrStale) {
			return
		}
		v.log.Warn("refresh failed", slog.String("query", query), slog.Any("err", err))
		if v.onError != nil {
			v.onError(err)
		}
	}()
}
