package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/apihub-assistant/internal/errs"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
	StoreDriverMemory   = "memory"
)

// DefaultTriggerPhrases is the escalation phrase set used when ESCALATION_TRIGGER_PHRASES is unset.
var DefaultTriggerPhrases = []string{
	"i cannot resolve this",
	"cannot resolve",
	"off-topic",
	"not related",
	"i'm not sure",
	"not sure",
	"contact support",
	"ticket will be created",
}

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	StoreDriver string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Mongo struct {
		URI      string
		Database string
	}

	LLM struct {
		APIKey  string
		BaseURL string
		Model   string
		Timeout time.Duration
	}

	Twilio struct {
		AccountSID string
		AuthToken  string
		From       string
		Channel    string
	}

	// SupportContact is the operator address every escalation is sent to.
	SupportContact     string
	OperatorWebhookURL string

	KafkaBrokers     []string
	KafkaTopicTicket string

	ContextWindow      int
	TriggerPhrases     []string
	APICatalogFile     string
	SessionIdleTimeout time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:            getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:           firstEnv("APP_PORT", "HTTP_PORT", "8097"),
		AppEnv:             getEnv("APP_ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		StoreDriver:        strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		SupportContact:     strings.TrimSpace(getEnv("SUPPORT_PHONE_NUMBER", "")),
		OperatorWebhookURL: getEnv("OPERATOR_WEBHOOK_URL", ""),
		KafkaBrokers:       ParseList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTicket:   getEnv("KAFKA_TOPIC_TICKET", ""),
		APICatalogFile:     getEnv("API_CATALOG_FILE", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "apihub_assistant")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Mongo.URI = firstEnv("MONGODB_URI", "MONGO_URI", "")
	cfg.Mongo.Database = getEnv("MONGODB_DATABASE", "apiman")

	cfg.LLM.APIKey = firstEnv("LLM_API_KEY", "GROQ_API_KEY", "")
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", "https://api.groq.com/openai/v1")
	cfg.LLM.Model = getEnv("LLM_MODEL", "llama3-8b-8192")

	cfg.Twilio.AccountSID = getEnv("TWILIO_ACCOUNT_SID", "")
	cfg.Twilio.AuthToken = getEnv("TWILIO_AUTH_TOKEN", "")
	cfg.Twilio.From = getEnv("TWILIO_NUMBER", "")
	cfg.Twilio.Channel = strings.ToLower(getEnv("TWILIO_CHANNEL", "whatsapp"))

	var err error
	if cfg.LLM.Timeout, err = time.ParseDuration(getEnv("LLM_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("config: LLM_TIMEOUT: %w", err)
	}
	if cfg.SessionIdleTimeout, err = time.ParseDuration(getEnv("SESSION_IDLE_TIMEOUT", "30m")); err != nil {
		return nil, fmt.Errorf("config: SESSION_IDLE_TIMEOUT: %w", err)
	}
	if cfg.ContextWindow, err = strconv.Atoi(getEnv("CONTEXT_WINDOW", "5")); err != nil {
		return nil, fmt.Errorf("config: CONTEXT_WINDOW: %w", err)
	}
	cfg.TriggerPhrases = DefaultTriggerPhrases
	if v := os.Getenv("ESCALATION_TRIGGER_PHRASES"); v != "" {
		cfg.TriggerPhrases = ParseList(v)
	}
	return cfg, nil
}

// Validate checks everything the API and chat modes need. A missing support
// contact is fatal: escalations would have nowhere to go.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}
	if c.SupportContact == "" {
		return fmt.Errorf("config: SUPPORT_PHONE_NUMBER: %w", errs.ErrMissingContact)
	}
	if c.ContextWindow < 0 {
		return errors.New("config: CONTEXT_WINDOW must be >= 0")
	}
	if len(c.TriggerPhrases) == 0 {
		return errors.New("config: ESCALATION_TRIGGER_PHRASES must contain at least one phrase")
	}
	if c.Twilio.Channel != "whatsapp" && c.Twilio.Channel != "sms" {
		return fmt.Errorf("config: TWILIO_CHANNEL must be whatsapp or sms, got %q", c.Twilio.Channel)
	}
	return nil
}

// ValidateStore checks only the persistence settings (used by migrate and ticket commands).
func (c *Config) ValidateStore() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DB.Host == "" || c.DB.Database == "" {
			return errors.New("config: DB_HOST and DB_DATABASE are required")
		}
		if c.AppEnv == "production" && c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
	case StoreDriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("config: MONGODB_URI is required for the mongo store")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

// ParseList splits "a, b,c" into trimmed non-empty items.
func ParseList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
