package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/DeafMist/notice-radar/internal/config"
	"github.com/DeafMist/notice-radar/internal/crawler"
	"github.com/DeafMist/notice-radar/internal/logger"
)

func main() {
	log := logger.New("crawler")
	if err := config.LoadDotEnv(); err != nil {
		log.Warn("ignoring env file", slog.Any("err", err))
	}
	cfg, err := config.LoadCrawler()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Error("load timezone", slog.Any("err", err))
		os.Exit(1)
	}

	pub := crawler.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("close publisher", slog.Any("err", err))
		}
	}()

	c := crawler.New(crawler.Options{
		TargetURL:    cfg.TargetURL,
		DownloadDir:  cfg.DownloadDir,
		SummaryLimit: cfg.SummaryLimit,
		TitleLimit:   cfg.TitleLimit,
	}, &http.Client{Timeout: cfg.HTTPTimeout}, pub, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	log.Info("crawler started",
		slog.String("target", cfg.TargetURL),
		slog.String("topic", cfg.KafkaTopic),
		slog.Int("hour", cfg.ScheduleHour),
		slog.Int("minute", cfg.ScheduleMinute),
		slog.String("timezone", cfg.Timezone),
	)

	crawler.Daily(ctx, log, cfg.ScheduleHour, cfg.ScheduleMinute, loc, func(ctx context.Context) {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()
		if _, err := c.Run(runCtx); err != nil {
			log.Error("crawl failed (will retry on next schedule)", slog.Any("err", err))
		}
	})

	log.Info("shutdown signal received")
}
