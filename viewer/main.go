package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/DeafMist/notice-radar/internal/apiclient"
	"github.com/DeafMist/notice-radar/internal/config"
	"github.com/DeafMist/notice-radar/internal/logger"
	"github.com/DeafMist/notice-radar/internal/view"
)

const (
	refreshCommand = ":r"
	quitCommand    = ":q"
)

// terminalTable prints the table as it is rebuilt.
type terminalTable struct {
	mu   sync.Mutex
	w    io.Writer
	html bool
}

func (t *terminalTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, "----")
}

func (t *terminalTable) Append(row view.Row) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.html {
		fmt.Fprint(t.w, view.RowHTML(row))
		return
	}
	fmt.Fprintf(t.w, "%s | %s | %s | %s -> %s\n", row.DiscoveredAt, row.Title, row.Summary, view.LinkLabel, row.Href)
}

func main() {
	htmlOut := flag.Bool("html", false, "print rows as HTML instead of plain text")
	cursor := flag.String("cursor", "", "start listing from this continuation cursor")
	flag.Parse()

	log := logger.New("viewer")
	if err := config.LoadDotEnv(); err != nil {
		log.Warn("ignoring env file", slog.Any("err", err))
	}
	cfg, err := config.LoadViewer()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	client := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(log),
	)
	v := view.New(client, &terminalTable{w: os.Stdout, html: *htmlOut},
		view.WithPageSize(cfg.PageSize),
		view.WithCursor(*cursor),
		view.WithLogger(log),
		view.WithErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}),
	)

	input := &view.Field{}
	trigger := &view.Button{}
	v.Attach(ctx, input, trigger)

	if err := v.Start(ctx); err != nil {
		log.Error("initial refresh", slog.Any("err", err))
	}

	readCommands(ctx, os.Stdin, input, trigger)
	v.Wait()
}

// readCommands turns stdin lines into input and trigger events until EOF,
// ":q" or cancellation.
func readCommands(ctx context.Context, r io.Reader, input *view.Field, trigger *view.Button) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			switch strings.TrimSpace(line) {
			case quitCommand:
				return
			case refreshCommand:
				trigger.Press()
			default:
				input.Set(line)
			}
		}
	}
}
