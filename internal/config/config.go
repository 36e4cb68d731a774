package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Common contains Elasticsearch parameters shared by every service.
type Common struct {
	ElasticsearchAddr  string
	ElasticsearchIndex string
}

// Kafka names the brokers and the raw document topic.
type Kafka struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// Crawler configures the notifications page crawler.
type Crawler struct {
	Kafka
	TargetURL      string
	DownloadDir    string
	HTTPTimeout    time.Duration
	ScheduleHour   int
	ScheduleMinute int
	Timezone       string
	SummaryLimit   int
	TitleLimit     int
}

// Worker holds configuration for the Kafka -> Elasticsearch indexer.
type Worker struct {
	Common
	Kafka
	KafkaConsumer  string
	DedupeCapacity int
	DedupeTTL      time.Duration
	BatchSize      int
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr    string
	DefaultPage int
	MaxPage     int
	ViewPage    int
}

// Retention configures the cleanup loop.
type Retention struct {
	Common
	Interval  time.Duration
	MaxAge    time.Duration
	BatchSize int
}

// Viewer configures the terminal document list.
type Viewer struct {
	APIURL      string
	PageSize    int
	HTTPTimeout time.Duration
}

// LoadDotEnv reads a .env file into the process environment when one exists.
// Variables already set win over the file.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	existing := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadCrawler builds a Crawler config from environment variables.
func LoadCrawler() (*Crawler, error) {
	c := &Crawler{
		Kafka:        loadKafka(),
		TargetURL:    getEnv("CRAWLER_TARGET_URL", "https://www.dian.gov.co/notificaciones/Paginas/default.aspx"),
		DownloadDir:  getEnv("CRAWLER_DOWNLOAD_DIR", "pdfs"),
		HTTPTimeout:  getDuration("CRAWLER_HTTP_TIMEOUT", "20s"),
		Timezone:     getEnv("CRAWLER_TIMEZONE", "America/Bogota"),
		SummaryLimit: getInt("CRAWLER_SUMMARY_LIMIT", 600),
		TitleLimit:   getInt("CRAWLER_TITLE_LIMIT", 1000),
	}

	hour, minute, err := parseClock(getEnv("CRAWLER_SCHEDULE", "04:00"))
	if err != nil {
		return nil, fmt.Errorf("CRAWLER_SCHEDULE: %w", err)
	}
	c.ScheduleHour, c.ScheduleMinute = hour, minute

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if !strings.HasPrefix(c.TargetURL, "http") {
		return nil, fmt.Errorf("CRAWLER_TARGET_URL must be an http(s) URL")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return nil, fmt.Errorf("CRAWLER_TIMEZONE: %w", err)
	}
	if c.SummaryLimit <= 0 {
		return nil, fmt.Errorf("CRAWLER_SUMMARY_LIMIT must be positive")
	}
	if c.TitleLimit <= 0 {
		return nil, fmt.Errorf("CRAWLER_TITLE_LIMIT must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	c := &Worker{
		Common:         loadCommon(),
		Kafka:          loadKafka(),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "documents-indexer"),
		DedupeCapacity: getInt("WORKER_DEDUPE_CAPACITY", 20000),
		DedupeTTL:      getDuration("WORKER_DEDUPE_TTL", "24h"),
		BatchSize:      getInt("WORKER_BATCH_SIZE", 10),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("WORKER_BATCH_SIZE must be positive")
	}
	if c.DedupeCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_DEDUPE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	c := &API{
		Common:      loadCommon(),
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 100),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 500),
		ViewPage:    getInt("API_VIEW_PAGE_SIZE", 200),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}
	if c.ViewPage <= 0 || c.ViewPage > c.MaxPage {
		return nil, fmt.Errorf("API_VIEW_PAGE_SIZE must be between 1 and API_MAX_PAGE_SIZE")
	}

	return c, nil
}

// LoadRetention builds a Retention config from environment variables.
func LoadRetention() (*Retention, error) {
	c := &Retention{
		Common:    loadCommon(),
		Interval:  getDuration("RETENTION_INTERVAL", "24h"),
		MaxAge:    getDuration("RETENTION_MAX_AGE", "8760h"),
		BatchSize: getInt("RETENTION_BATCH_SIZE", 500),
	}

	if c.MaxAge <= 0 {
		return nil, fmt.Errorf("RETENTION_MAX_AGE must be positive")
	}
	if c.Interval <= 0 {
		return nil, fmt.Errorf("RETENTION_INTERVAL must be positive")
	}
	if c.BatchSize <= 0 {
		return nil, fmt.Errorf("RETENTION_BATCH_SIZE must be positive")
	}

	return c, nil
}

// LoadViewer builds a Viewer config from environment variables.
func LoadViewer() (*Viewer, error) {
	c := &Viewer{
		APIURL:      strings.TrimRight(getEnv("VIEWER_API_URL", "http://localhost:8080"), "/"),
		PageSize:    getInt("VIEWER_PAGE_SIZE", 200),
		HTTPTimeout: getDuration("VIEWER_HTTP_TIMEOUT", "15s"),
	}

	if !strings.HasPrefix(c.APIURL, "http") {
		return nil, fmt.Errorf("VIEWER_API_URL must be an http(s) URL")
	}
	if c.PageSize <= 0 {
		return nil, fmt.Errorf("VIEWER_PAGE_SIZE must be positive")
	}

	return c, nil
}

func loadCommon() Common {
	return Common{
		ElasticsearchAddr:  getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		ElasticsearchIndex: getEnv("ELASTICSEARCH_INDEX", "documents"),
	}
}

func loadKafka() Kafka {
	return Kafka{
		KafkaBrokers: splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "documents_raw"),
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseClock reads an HH:MM wall-clock time.
func parseClock(raw string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", raw)
	}
	return t.Hour(), t.Minute(), nil
}
