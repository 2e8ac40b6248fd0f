package config

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/psds-microservice/apihub-assistant/internal/errs"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SUPPORT_PHONE_NUMBER", "+15550100")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("CONTEXT_WINDOW", "")
	t.Setenv("ESCALATION_TRIGGER_PHRASES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreDriver != StoreDriverPostgres {
		t.Errorf("StoreDriver = %q, want postgres", cfg.StoreDriver)
	}
	if cfg.ContextWindow != 5 {
		t.Errorf("ContextWindow = %d, want 5", cfg.ContextWindow)
	}
	if !reflect.DeepEqual(cfg.TriggerPhrases, DefaultTriggerPhrases) {
		t.Errorf("TriggerPhrases = %v", cfg.TriggerPhrases)
	}
	if cfg.SessionIdleTimeout != 30*time.Minute {
		t.Errorf("SessionIdleTimeout = %v", cfg.SessionIdleTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ESCALATION_TRIGGER_PHRASES", " escalate ,, human please ")
	t.Setenv("CONTEXT_WINDOW", "2")
	t.Setenv("STORE_DRIVER", "Memory")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := []string{"escalate", "human please"}; !reflect.DeepEqual(cfg.TriggerPhrases, want) {
		t.Errorf("TriggerPhrases = %v, want %v", cfg.TriggerPhrases, want)
	}
	if cfg.ContextWindow != 2 {
		t.Errorf("ContextWindow = %d", cfg.ContextWindow)
	}
	if cfg.StoreDriver != StoreDriverMemory {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
}

func TestLoadRejectsBadWindow(t *testing.T) {
	t.Setenv("CONTEXT_WINDOW", "five")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric CONTEXT_WINDOW")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{StoreDriver: StoreDriverMemory, SupportContact: "+15550100", ContextWindow: 5}
		c.TriggerPhrases = []string{"not sure"}
		c.Twilio.Channel = "whatsapp"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"valid", func(*Config) {}, true},
		{"missing contact", func(c *Config) { c.SupportContact = "" }, false},
		{"negative window", func(c *Config) { c.ContextWindow = -1 }, false},
		{"zero window", func(c *Config) { c.ContextWindow = 0 }, true},
		{"no phrases", func(c *Config) { c.TriggerPhrases = nil }, false},
		{"unknown driver", func(c *Config) { c.StoreDriver = "redis" }, false},
		{"mongo without uri", func(c *Config) { c.StoreDriver = StoreDriverMongo }, false},
		{"bad channel", func(c *Config) { c.Twilio.Channel = "pager" }, false},
		{"production postgres without password", func(c *Config) {
			c.StoreDriver = StoreDriverPostgres
			c.AppEnv = "production"
			c.DB.Host, c.DB.Database = "db", "apihub"
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate: expected error")
			}
		})
	}
}

func TestValidateMissingContactIsTyped(t *testing.T) {
	c := &Config{StoreDriver: StoreDriverMemory, TriggerPhrases: []string{"x"}}
	c.Twilio.Channel = "sms"
	if err := c.Validate(); !errors.Is(err, errs.ErrMissingContact) {
		t.Fatalf("Validate = %v, want ErrMissingContact", err)
	}
}
