package crawler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/notice-radar/internal/crawler"
	"github.com/DeafMist/notice-radar/internal/models"
	"github.com/DeafMist/notice-radar/internal/processing"
)

type stubPublisher struct {
	docs []models.RawDocument
	err  error
}

func (s *stubPublisher) Publish(_ context.Context, docs ...models.RawDocument) error {
	if s.err != nil {
		return s.err
	}
	s.docs = append(s.docs, docs...)
	return nil
}

const indexPage = `<html><body>
<a href="/docs/aviso-001.pdf">  Aviso 001 </a>
<a href="/notificaciones/edicto.html">Edicto de notificación</a>
<a href="/calendario/missing">Calendario</a>
<a href="/contacto.aspx">Contacto</a>
<a href="/docs/aviso-001.pdf">Aviso 001 again</a>
<a href="/docs/blank.pdf"></a>
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/notificaciones/default.aspx", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexPage))
	})
	mux.HandleFunc("/docs/aviso-001.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 aviso"))
	})
	mux.HandleFunc("/docs/blank.pdf", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4 blank"))
	})
	mux.HandleFunc("/notificaciones/edicto.html", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><style>p{}</style></head><body><h1>Edicto</h1><p>Se notifica
		al contribuyente.</p><script>var x;</script></body></html>`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunPublishesCandidates(t *testing.T) {
	srv := newSite(t)
	dir := t.TempDir()
	pub := &stubPublisher{}

	c := crawler.New(crawler.Options{
		TargetURL:   srv.URL + "/notificaciones/default.aspx",
		DownloadDir: dir,
	}, srv.Client(), pub, nil)

	res, err := c.Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, res.RunID)
	require.Equal(t, 4, res.Candidates)
	require.Equal(t, 3, res.Published)
	require.Equal(t, 1, res.Failed)
	require.Len(t, pub.docs, 3)

	pdf := pub.docs[0]
	require.Equal(t, "Aviso 001", pdf.Title)
	require.Equal(t, srv.URL+"/docs/aviso-001.pdf", pdf.URL)
	require.Equal(t, processing.ContentHash([]byte("%PDF-1.4 aviso")), pdf.Hash)
	require.Empty(t, pdf.Summary)
	require.Equal(t, res.RunID, pdf.RunID)
	_, err = time.Parse(time.RFC3339Nano, pdf.DiscoveredAt)
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(dir, pdf.Hash+".pdf"))
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.4 aviso", string(stored))

	page := pub.docs[1]
	require.Equal(t, "Edicto de notificación", page.Title)
	require.Equal(t, "Edicto Se notifica al contribuyente.", page.Summary)

	require.Equal(t, processing.DefaultTitle, pub.docs[2].Title)
}

func TestRunFailsWhenTargetUnavailable(t *testing.T) {
	srv := newSite(t)
	c := crawler.New(crawler.Options{TargetURL: srv.URL + "/gone"}, srv.Client(), &stubPublisher{}, nil)

	_, err := c.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch target page")
}

func TestRunStopsOnPublishError(t *testing.T) {
	srv := newSite(t)
	boom := errors.New("broker down")
	c := crawler.New(crawler.Options{TargetURL: srv.URL + "/notificaciones/default.aspx"}, srv.Client(), &stubPublisher{err: boom}, nil)

	res, err := c.Run(context.Background())
	require.ErrorIs(t, err, boom)
	require.Zero(t, res.Published)
}

func TestExtractLinks(t *testing.T) {
	links, err := crawler.ExtractLinks(strings.NewReader(indexPage), "https://www.dian.gov.co/notificaciones/Paginas/default.aspx", 5)
	require.NoError(t, err)
	require.Equal(t, []crawler.Link{
		{URL: "https://www.dian.gov.co/docs/aviso-001.pdf", Title: "Aviso"},
		{URL: "https://www.dian.gov.co/notificaciones/edicto.html", Title: "Edict"},
		{URL: "https://www.dian.gov.co/calendario/missing", Title: "Calen"},
		{URL: "https://www.dian.gov.co/docs/blank.pdf", Title: "Docum"},
	}, links)
}

func TestPageTextSeparatesNodes(t *testing.T) {
	text, err := crawler.PageText(strings.NewReader(`<div><p>uno</p><p>dos</p></div><noscript>x</noscript>tres`))
	require.NoError(t, err)
	require.Equal(t, "uno dos tres", text)
}
