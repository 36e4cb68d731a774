// Package crawler discovers documents linked from the notifications page,
// downloads them and publishes one raw document message per link.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DeafMist/notice-radar/internal/logger"
	"github.com/DeafMist/notice-radar/internal/models"
	"github.com/DeafMist/notice-radar/internal/processing"
)

// maxDocumentBytes bounds a single download.
const maxDocumentBytes = 50 << 20

// Publisher hands raw documents to the indexer.
type Publisher interface {
	Publish(ctx context.Context, docs ...models.RawDocument) error
}

// Options configure a Crawler.
type Options struct {
	TargetURL    string
	DownloadDir  string
	SummaryLimit int
	TitleLimit   int
}

// Result summarizes one crawl.
type Result struct {
	RunID      string
	Candidates int
	Published  int
	Failed     int
}

// Crawler walks the target page once per Run.
type Crawler struct {
	opts   Options
	client *http.Client
	pub    Publisher
	log    *slog.Logger
	now    func() time.Time
}

// New builds a crawler. A nil client gets a 20 second timeout.
func New(opts Options, client *http.Client, pub Publisher, log *slog.Logger) *Crawler {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if log == nil {
		log = logger.Discard()
	}
	if opts.SummaryLimit <= 0 {
		opts.SummaryLimit = 600
	}
	if opts.TitleLimit <= 0 {
		opts.TitleLimit = 1000
	}
	return &Crawler{
		opts:   opts,
		client: client,
		pub:    pub,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run crawls the target page. Failures of single links are logged and
// counted; only a failure to read the target page or to publish aborts the
// run.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := c.log.With(slog.String("run_id", res.RunID))
	log.Info("starting crawl", slog.String("target", c.opts.TargetURL))

	body, _, err := c.get(ctx, c.opts.TargetURL)
	if err != nil {
		return res, fmt.Errorf("fetch target page: %w", err)
	}

	links, err := ExtractLinks(bytes.NewReader(body), c.opts.TargetURL, c.opts.TitleLimit)
	if err != nil {
		return res, err
	}
	res.Candidates = len(links)

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		raw, err := c.fetchDocument(ctx, link)
		if err != nil {
			res.Failed++
			log.Warn("download failed", slog.String("url", link.URL), slog.Any("err", err))
			continue
		}
		raw.RunID = res.RunID

		if err := c.pub.Publish(ctx, raw); err != nil {
			return res, fmt.Errorf("publish %s: %w", link.URL, err)
		}
		res.Published++
	}

	log.Info("crawl finished",
		slog.Int("candidates", res.Candidates),
		slog.Int("published", res.Published),
		slog.Int("failed", res.Failed),
	)
	return res, nil
}

func (c *Crawler) fetchDocument(ctx context.Context, link Link) (models.RawDocument, error) {
	content, contentType, err := c.get(ctx, link.URL)
	if err != nil {
		return models.RawDocument{}, err
	}

	hash := processing.ContentHash(content)
	doc := models.RawDocument{
		Title:        link.Title,
		URL:          link.URL,
		Hash:         hash,
		DiscoveredAt: c.now().Format(time.RFC3339Nano),
	}

	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "text/html"):
		text, err := PageText(bytes.NewReader(content))
		if err != nil {
			c.log.Debug("no summary", slog.String("url", link.URL), slog.Any("err", err))
		} else {
			doc.Summary = processing.Summarize(text, c.opts.SummaryLimit)
		}
	case strings.HasPrefix(ct, "application/pdf"):
		if err := c.storePDF(hash, content); err != nil {
			return models.RawDocument{}, err
		}
	}

	return doc, nil
}

func (c *Crawler) storePDF(hash string, content []byte) error {
	if c.opts.DownloadDir == "" {
		return nil
	}
	path := filepath.Join(c.opts.DownloadDir, hash+".pdf")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(c.opts.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (c *Crawler) get(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("read body: %w", err)
	}
	if len(content) > maxDocumentBytes {
		return nil, "", errors.New("document exceeds size limit")
	}

	return content, resp.Header.Get("Content-Type"), nil
}
