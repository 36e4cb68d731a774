package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/notice-radar/internal/elasticsearch"
	"github.com/DeafMist/notice-radar/internal/models"
)

// fakeES answers like an Elasticsearch node for the handful of calls the
// client makes.
func fakeES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.New(srv.URL, "documents", nil)
	require.NoError(t, err)
	return client
}

func TestCreateDocumentUsesCreateOpType(t *testing.T) {
	var gotPath, gotOpType string
	var gotDoc models.Document
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotOpType = r.URL.Query().Get("op_type")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDoc))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	doc := models.Document{
		ID:           "abc123",
		Title:        "Aviso",
		URL:          "https://x/aviso.pdf",
		Hash:         "abc123",
		DiscoveredAt: time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC),
	}
	require.NoError(t, client.CreateDocument(context.Background(), doc))
	require.Equal(t, "/documents/_doc/abc123", gotPath)
	require.Equal(t, "create", gotOpType)
	require.Equal(t, doc, gotDoc)
}

func TestCreateDocumentConflictIsDuplicate(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":{"type":"version_conflict_engine_exception"},"status":409}`))
	})

	err := client.CreateDocument(context.Background(), models.Document{ID: "abc"})
	require.ErrorIs(t, err, elasticsearch.ErrDuplicate)
}

func TestGetDocumentNotFound(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"_index":"documents","_id":"nope","found":false}`))
	})

	_, err := client.GetDocument(context.Background(), "nope")
	require.ErrorIs(t, err, elasticsearch.ErrNotFound)
}

func TestListDocumentsBuildsNextCursorOnFullPage(t *testing.T) {
	var body map[string]any
	client := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/documents/_search"))
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"id":"b","title":"Segundo","url":"http://x/b","discovered_at":"2024-03-02T00:00:00Z"},"sort":[1709337600000,"b"]},
			{"_source":{"id":"a","title":"Primero","url":"http://x/a","discovered_at":"2024-03-01T00:00:00Z"},"sort":[1709251200000,"a"]}
		]}}`))
	})

	res, err := client.ListDocuments(context.Background(), elasticsearch.ListParams{Limit: 2, Cursor: "1709400000000|c"})
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	require.Equal(t, "Segundo", res.Items[0].Title)
	require.Equal(t, "1709251200000|a", res.NextCursor)

	require.EqualValues(t, 2, body["size"])
	require.Equal(t, []any{float64(1709400000000), "c"}, body["search_after"])
}

func TestListDocumentsShortPageHasNoCursor(t *testing.T) {
	client := fakeES(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[
			{"_source":{"id":"a","title":"Primero","discovered_at":"2024-03-01T00:00:00Z"},"sort":[1709251200000,"a"]}
		]}}`))
	})

	res, err := client.ListDocuments(context.Background(), elasticsearch.ListParams{Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	require.Empty(t, res.NextCursor)
}
