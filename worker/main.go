package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/DeafMist/notice-radar/internal/config"
	"github.com/DeafMist/notice-radar/internal/dedupe"
	"github.com/DeafMist/notice-radar/internal/elasticsearch"
	"github.com/DeafMist/notice-radar/internal/logger"
	"github.com/DeafMist/notice-radar/internal/models"
	"github.com/DeafMist/notice-radar/internal/processing"
)

type documentStore interface {
	CreateDocument(ctx context.Context, doc models.Document) error
}

func main() {
	log := logger.New("worker")
	if err := config.LoadDotEnv(); err != nil {
		log.Warn("ignoring env file", slog.Any("err", err))
	}
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = esClient.EnsureIndex(initCtx)
	cancel()
	if err != nil {
		log.Error("ensure index", slog.Any("err", err))
		os.Exit(1)
	}

	if err := run(ctx, log, cfg, esClient); err != nil {
		log.Error("worker stopped", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg *config.Worker, store documentStore) error {
	cache := dedupe.NewCache(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit only
	})
	defer reader.Close()

	dlqTopic := cfg.KafkaTopic + "_dlq"
	dlqWriter := &kafka.Writer{
		Addr:        kafka.TCP(cfg.KafkaBrokers...),
		Topic:       dlqTopic,
		MaxAttempts: 3,
	}
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	return consume(ctx, log, reader, dlqWriter, store, cache)
}

// ErrDLQUnavailable stops consumption when a failed message can be neither
// indexed nor dead-lettered. Committing any later offset of the partition
// would also commit the failed one, so the worker stops and the message is
// fetched again after a restart.
var ErrDLQUnavailable = errors.New("dead-letter queue unavailable")

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// consume indexes messages until ctx is done. A message is committed once it
// is stored, known to be stored, or dead-lettered.
func consume(ctx context.Context, log *slog.Logger, reader messageReader, dlq messageWriter, store documentStore, cache *dedupe.Cache) error {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("context canceled, stopping")
				return nil
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, store, cache, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)
			if !sendToDLQ(ctx, log, dlq, msg, err) {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: partition %d offset %d left uncommitted",
					ErrDLQUnavailable, msg.Partition, msg.Offset)
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

// dlqBackoff is the wait before the second DLQ attempt; it doubles after
// every failure.
var dlqBackoff = time.Second

// sendToDLQ retries the dead-letter write with exponential backoff and
// reports whether it succeeded.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message, cause error) bool {
	dlqMsg := kafka.Message{
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(msg.Headers,
			kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
			kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
			kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		),
	}

	for attempt := range 5 {
		dlqErr := w.WriteMessages(ctx, dlqMsg)
		if dlqErr == nil {
			log.Info("message sent to DLQ",
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
				slog.Int("attempt", attempt+1),
			)
			return true
		}

		backoff := dlqBackoff << uint(attempt)
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", dlqErr),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}

func processMessage(ctx context.Context, log *slog.Logger, store documentStore, cache *dedupe.Cache, msg kafka.Message) error {
	var payload models.RawDocument
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		return err
	}

	doc, err := buildDocument(payload)
	if err != nil {
		return err
	}

	if cache.IsSeen(doc.ID) {
		log.Debug("duplicate document", slog.String("id", doc.ID))
		return nil
	}

	if err := store.CreateDocument(ctx, doc); err != nil {
		if !errors.Is(err, elasticsearch.ErrDuplicate) {
			return err
		}
		log.Debug("document already stored", slog.String("id", doc.ID))
		cache.MarkSeen(doc.ID)
		return nil
	}

	cache.MarkSeen(doc.ID)
	log.Info("indexed document", slog.String("id", doc.ID), slog.String("title", doc.Title))
	return nil
}

func buildDocument(payload models.RawDocument) (models.Document, error) {
	url := strings.TrimSpace(payload.URL)
	if url == "" {
		return models.Document{}, errors.New("missing url")
	}

	hash := strings.ToLower(strings.TrimSpace(payload.Hash))
	id := hash
	if id == "" {
		// No content hash: derive a stable ID from the URL instead.
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(url)).String()
	}

	ts, ok := processing.ParseTimestamp(payload.DiscoveredAt)
	if !ok {
		ts = time.Now().UTC()
	}

	return models.Document{
		ID:           id,
		Title:        processing.NormalizeTitle(payload.Title, 1000),
		URL:          url,
		Summary:      strings.TrimSpace(payload.Summary),
		Hash:         hash,
		DiscoveredAt: ts,
	}, nil
}
