package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"DocDigest/internal/domain"
)

const (
	configPathEnv      = "DOCDIGEST_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	sendGridAPIKeyEnv  = "SENDGRID_API_KEY"
	openAIAPIKeyEnv    = "OPENAI_API_KEY"
	credentialsEnv     = "GOOGLE_APPLICATION_CREDENTIALS"
	googleProjectEnv   = "GOOGLE_CLOUD_PROJECT"
	logLevelEnv        = "LOG_LEVEL"
	kafkaBrokersEnv    = "KAFKA_BROKERS"
	archiveBucketEnv   = "ARCHIVE_BUCKET"
	httpAddrEnv        = "HTTP_ADDR"
	googleDocURLPrefix = "https://docs.google.com/document/d/"
)

// Ledger drivers.
const (
	DriverSQLite    = "sqlite"
	DriverPostgres  = "postgres"
	DriverFirestore = "firestore"
	DriverMemory    = "memory"
)

// Summarizer providers.
const (
	ProviderOpenAI = "openai"
	ProviderAzure  = "azure"
	ProviderVertex = "vertex"
)

// Document sources.
const (
	SourceGoogleDocs = "gdocs"
	SourceWeb        = "web"
)

var documentIDExpr = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)

// Config holds high-level settings required across the application.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Google     GoogleConfig     `yaml:"google"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Retry      RetryConfig      `yaml:"retry"`
	Email      EmailConfig      `yaml:"email"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Kafka      KafkaConfig      `yaml:"kafka"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	HTTP       HTTPConfig       `yaml:"http"`
	Feeds      []FeedConfig     `yaml:"feeds"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LedgerConfig selects where sent state is persisted.
type LedgerConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
	// CollectionPrefix namespaces Firestore collections. The section queries
	// need the composite indexes in deploy/firestore.indexes.json; with a
	// prefix, rename their collectionGroup to <prefix>document_sections.
	CollectionPrefix string `yaml:"collectionPrefix"`
}

// GoogleConfig carries shared Google Cloud settings.
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentialsFile"`
	Project         string `yaml:"project"`
}

// SummarizerConfig defines how to contact the LLM.
type SummarizerConfig struct {
	Provider     string        `yaml:"provider"`
	Endpoint     string        `yaml:"endpoint"`
	Model        string        `yaml:"model"`
	APIKey       string        `yaml:"apiKey"`
	SystemPrompt string        `yaml:"systemPrompt"`
	MaxTokens    int           `yaml:"maxTokens"`
	Timeout      time.Duration `yaml:"timeout"`
	Project      string        `yaml:"project"`
	Region       string        `yaml:"region"`
}

// RetryConfig bounds retries of transient collaborator failures.
type RetryConfig struct {
	MaxAttempts     int           `yaml:"maxAttempts"`
	InitialInterval time.Duration `yaml:"initialInterval"`
	MaxInterval     time.Duration `yaml:"maxInterval"`
	Multiplier      float64       `yaml:"multiplier"`
}

// EmailConfig wires SendGrid delivery.
type EmailConfig struct {
	SendGridAPIKey string            `yaml:"sendgridApiKey"`
	FromName       string            `yaml:"fromName"`
	FromAddress    string            `yaml:"fromAddress"`
	Subjects       map[string]string `yaml:"subjects"`
}

// ArchiveConfig enables copying delivered batches to a GCS bucket.
type ArchiveConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

// KafkaConfig enables delivery events.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// SchedulerConfig enables the built-in ticker in serve mode. Zero disables it.
type SchedulerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	RunAtStart bool          `yaml:"runAtStart"`
}

// HTTPConfig describes the control surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// FeedConfig is one summary type with its documents and subscribers.
type FeedConfig struct {
	Type        string           `yaml:"type"`
	Subscribers []string         `yaml:"subscribers"`
	Documents   []DocumentConfig `yaml:"documents"`
}

// DocumentConfig points at one document.
type DocumentConfig struct {
	URL           string `yaml:"url"`
	ID            string `yaml:"id"`
	DatePublished string `yaml:"datePublished"`
	Source        string `yaml:"source"`
}

// Load reads YAML configuration over defaults and applies environment overrides.
// An empty path falls back to DOCDIGEST_CONFIG; with neither, defaults are used.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else {
		log.Printf("config: no file given, using defaults")
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Ledger.DSN = v
	}

	if v := os.Getenv(sendGridAPIKeyEnv); v != "" {
		c.Email.SendGridAPIKey = v
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Summarizer.APIKey = v
	}

	if v := os.Getenv(credentialsEnv); v != "" {
		c.Google.CredentialsFile = v
	}

	if v := os.Getenv(googleProjectEnv); v != "" {
		c.Google.Project = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Kafka.Brokers = splitList(v)
	}

	if v := os.Getenv(archiveBucketEnv); v != "" {
		c.Archive.Bucket = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
}

// Validate reports every structural problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Ledger.Driver {
	case DriverSQLite, DriverPostgres:
		if c.Ledger.DSN == "" {
			errs = append(errs, fmt.Errorf("ledger.dsn is required for driver %s", c.Ledger.Driver))
		}
	case DriverFirestore:
		if c.Google.Project == "" {
			errs = append(errs, errors.New("google.project is required for the firestore ledger"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown ledger.driver %q", c.Ledger.Driver))
	}

	switch c.Summarizer.Provider {
	case ProviderOpenAI, ProviderAzure:
		if c.Summarizer.Endpoint == "" {
			errs = append(errs, errors.New("summarizer.endpoint is required"))
		}
	case ProviderVertex:
		if c.Summarizer.Project == "" && c.Google.Project == "" {
			errs = append(errs, errors.New("summarizer.project or google.project is required for vertex"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown summarizer.provider %q", c.Summarizer.Provider))
	}

	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("retry.maxAttempts must be at least 1"))
	}
	if c.Kafka.Topic == "" && len(c.Kafka.Brokers) > 0 {
		errs = append(errs, errors.New("kafka.topic is required when brokers are set"))
	}

	if len(c.Feeds) == 0 {
		errs = append(errs, errors.New("no feeds configured"))
	}
	seen := map[domain.SummaryType]bool{}
	for i, f := range c.Feeds {
		t := domain.SummaryType(f.Type)
		if !t.Valid() {
			errs = append(errs, fmt.Errorf("feeds[%d]: unknown type %q", i, f.Type))
			continue
		}
		if seen[t] {
			errs = append(errs, fmt.Errorf("feeds[%d]: type %s configured twice", i, t))
		}
		seen[t] = true
		if len(f.Subscribers) == 0 {
			errs = append(errs, fmt.Errorf("feeds[%d] %s: no subscribers", i, t))
		}
		if _, err := f.DocumentInfos(); err != nil {
			errs = append(errs, fmt.Errorf("feeds[%d] %s: %w", i, t, err))
		}
	}

	return errors.Join(errs...)
}

// SummaryType returns the feed type.
func (f FeedConfig) SummaryType() domain.SummaryType {
	return domain.SummaryType(f.Type)
}

// DocumentInfos resolves every document entry to its identity.
func (f FeedConfig) DocumentInfos() ([]domain.DocumentInfo, error) {
	infos := make([]domain.DocumentInfo, 0, len(f.Documents))
	ids := map[string]bool{}
	for i, d := range f.Documents {
		info, err := d.resolve()
		if err != nil {
			return nil, fmt.Errorf("documents[%d]: %w", i, err)
		}
		if !f.SummaryType().Sectioned() && info.DatePublished == "" {
			return nil, fmt.Errorf("documents[%d]: datePublished is required for %s documents", i, f.Type)
		}
		if ids[info.ID] {
			return nil, fmt.Errorf("documents[%d]: document %s listed twice", i, info.ID)
		}
		ids[info.ID] = true
		infos = append(infos, info)
	}
	return infos, nil
}

func (d DocumentConfig) resolve() (domain.DocumentInfo, error) {
	info := domain.DocumentInfo{
		ID:            strings.TrimSpace(d.ID),
		URL:           strings.TrimSpace(d.URL),
		Source:        d.Source,
		DatePublished: d.DatePublished,
	}
	if info.Source == "" {
		info.Source = SourceGoogleDocs
	}

	switch info.Source {
	case SourceGoogleDocs:
		if info.ID == "" {
			id, ok := ExtractDocumentID(info.URL)
			if !ok {
				return domain.DocumentInfo{}, fmt.Errorf("cannot extract a Google Docs id from %q", info.URL)
			}
			info.ID = id
		}
		if info.URL == "" {
			info.URL = googleDocURLPrefix + info.ID
		}
	case SourceWeb:
		if info.ID == "" || info.URL == "" {
			return domain.DocumentInfo{}, errors.New("web documents need both id and url")
		}
	default:
		return domain.DocumentInfo{}, fmt.Errorf("unknown source %q", info.Source)
	}
	return info, nil
}

// ExtractDocumentID returns the id embedded in a Google Docs URL.
func ExtractDocumentID(url string) (string, bool) {
	match := documentIDExpr.FindStringSubmatch(url)
	if match == nil {
		return "", false
	}
	return match[1], true
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Ledger:  LedgerConfig{Driver: DriverSQLite, DSN: "summaries.db"},
		Summarizer: SummarizerConfig{
			Provider:  ProviderOpenAI,
			Endpoint:  "https://api.openai.com/v1/chat/completions",
			Model:     "gpt-4o",
			MaxTokens: 500,
			Timeout:   60 * time.Second,
			Region:    "us-central1",
		},
		Retry: RetryConfig{
			MaxAttempts:     4,
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
		},
		Email: EmailConfig{FromName: "Doc Digest"},
		Kafka: KafkaConfig{Topic: "docdigest.events"},
		HTTP:  HTTPConfig{Addr: ":8080"},
	}
}
