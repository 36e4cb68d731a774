package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DeafMist/notice-radar/internal/config"
	"github.com/stretchr/testify/require"
)

func TestLoadWorkerDefaults(t *testing.T) {
	t.Setenv("ELASTICSEARCH_ADDR", "")
	t.Setenv("ELASTICSEARCH_INDEX", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("KAFKA_TOPIC", "")
	t.Setenv("KAFKA_CONSUMER_GROUP", "")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)

	require.Equal(t, "http://elasticsearch:9200", cfg.ElasticsearchAddr)
	require.Equal(t, "documents", cfg.ElasticsearchIndex)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "documents_raw", cfg.KafkaTopic)
	require.Equal(t, "documents-indexer", cfg.KafkaConsumer)
	require.Equal(t, 24*time.Hour, cfg.DedupeTTL)
}

func TestLoadWorkerOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker-a:29092, broker-b:29093")
	t.Setenv("KAFKA_TOPIC", "custom_topic")
	t.Setenv("WORKER_DEDUPE_CAPACITY", "5")
	t.Setenv("WORKER_DEDUPE_TTL", "48h")
	t.Setenv("WORKER_BATCH_SIZE", "3")

	cfg, err := config.LoadWorker()
	require.NoError(t, err)
	require.Equal(t, []string{"broker-a:29092", "broker-b:29093"}, cfg.KafkaBrokers)
	require.Equal(t, "custom_topic", cfg.KafkaTopic)
	require.Equal(t, 5, cfg.DedupeCapacity)
	require.Equal(t, 48*time.Hour, cfg.DedupeTTL)
	require.Equal(t, 3, cfg.BatchSize)
}

func TestLoadWorkerRejectsZeroBatch(t *testing.T) {
	t.Setenv("WORKER_BATCH_SIZE", "0")
	_, err := config.LoadWorker()
	require.Error(t, err)
}

func TestLoadAPI(t *testing.T) {
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("API_PAGE_SIZE", "50")
	t.Setenv("API_MAX_PAGE_SIZE", "300")
	t.Setenv("API_VIEW_PAGE_SIZE", "")
	t.Setenv("ELASTICSEARCH_INDEX", "api-index")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 50, cfg.DefaultPage)
	require.Equal(t, 300, cfg.MaxPage)
	require.Equal(t, 200, cfg.ViewPage)
	require.Equal(t, "api-index", cfg.ElasticsearchIndex)
}

func TestLoadAPIRejectsDefaultAboveMax(t *testing.T) {
	t.Setenv("API_PAGE_SIZE", "600")
	t.Setenv("API_MAX_PAGE_SIZE", "500")
	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadRetention(t *testing.T) {
	t.Setenv("RETENTION_INTERVAL", "12h")
	t.Setenv("RETENTION_MAX_AGE", "36h")
	t.Setenv("RETENTION_BATCH_SIZE", "123")

	cfg, err := config.LoadRetention()
	require.NoError(t, err)
	require.Equal(t, 12*time.Hour, cfg.Interval)
	require.Equal(t, 36*time.Hour, cfg.MaxAge)
	require.Equal(t, 123, cfg.BatchSize)
}

func TestLoadCrawlerDefaults(t *testing.T) {
	t.Setenv("CRAWLER_TARGET_URL", "")
	t.Setenv("CRAWLER_SCHEDULE", "")
	t.Setenv("CRAWLER_TIMEZONE", "")

	cfg, err := config.LoadCrawler()
	require.NoError(t, err)
	require.Equal(t, "https://www.dian.gov.co/notificaciones/Paginas/default.aspx", cfg.TargetURL)
	require.Equal(t, 4, cfg.ScheduleHour)
	require.Equal(t, 0, cfg.ScheduleMinute)
	require.Equal(t, "America/Bogota", cfg.Timezone)
	require.Equal(t, 20*time.Second, cfg.HTTPTimeout)
	require.Equal(t, 600, cfg.SummaryLimit)
}

func TestLoadCrawlerSchedule(t *testing.T) {
	t.Setenv("CRAWLER_SCHEDULE", "23:45")
	cfg, err := config.LoadCrawler()
	require.NoError(t, err)
	require.Equal(t, 23, cfg.ScheduleHour)
	require.Equal(t, 45, cfg.ScheduleMinute)

	t.Setenv("CRAWLER_SCHEDULE", "noon")
	_, err = config.LoadCrawler()
	require.Error(t, err)
}

func TestLoadCrawlerRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("CRAWLER_TIMEZONE", "Mars/Olympus")
	_, err := config.LoadCrawler()
	require.Error(t, err)
}

func TestLoadViewerTrimsSlash(t *testing.T) {
	t.Setenv("VIEWER_API_URL", "http://docs.local:8080/")
	cfg, err := config.LoadViewer()
	require.NoError(t, err)
	require.Equal(t, "http://docs.local:8080", cfg.APIURL)
	require.Equal(t, 200, cfg.PageSize)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("NOTICE_RADAR_FROM_FILE=yes\nNOTICE_RADAR_PRESET=file\n"), 0o600))

	t.Setenv("NOTICE_RADAR_PRESET", "env")
	t.Cleanup(func() { os.Unsetenv("NOTICE_RADAR_FROM_FILE") })

	require.NoError(t, config.LoadDotEnv(path))
	require.Equal(t, "yes", os.Getenv("NOTICE_RADAR_FROM_FILE"))
	require.Equal(t, "env", os.Getenv("NOTICE_RADAR_PRESET"))

	require.NoError(t, config.LoadDotEnv(filepath.Join(dir, "missing.env")))
}
