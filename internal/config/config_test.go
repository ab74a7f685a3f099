package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	if got := cfg.GetString("llm.provider"); got != "gemini" {
		t.Errorf("llm.provider default = %q", got)
	}
	if got := cfg.GetString("server.filter_type"); got != "postfix" {
		t.Errorf("server.filter_type default = %q", got)
	}
	if cfg.GetBool("server.block_danger") {
		t.Error("server.block_danger should default to false")
	}
	if got := cfg.GetString("server.headers.level"); got != "X-Threat-Level" {
		t.Errorf("server.headers.level default = %q", got)
	}
	if !cfg.GetBool("cache.enabled") {
		t.Error("cache.enabled should default to true")
	}
	if cfg.GetBool("audit.enabled") {
		t.Error("audit.enabled should default to false")
	}

	ttl, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		t.Fatalf("cache.ttl did not parse: %v", err)
	}
	if ttl.Hours() != 24 {
		t.Errorf("cache.ttl default = %v", ttl)
	}
}

func TestTypedSections(t *testing.T) {
	v := NewEmptyViper()
	v.Set("gemini.api_key", "key")
	v.Set("gemini.temperature", 0.5)
	v.Set("security.extra_blacklist", []string{"bad.example"})
	cfg := NewFromViper(v)

	gemini := cfg.GetGemini()
	if gemini.APIKey != "key" {
		t.Errorf("APIKey = %q", gemini.APIKey)
	}
	if gemini.Temperature != 0.5 {
		t.Errorf("Temperature = %v", gemini.Temperature)
	}
	if gemini.MaxBodySize != 1000 {
		t.Errorf("MaxBodySize default = %d", gemini.MaxBodySize)
	}

	security := cfg.GetSecurity()
	if len(security.ExtraBlacklist) != 1 || security.ExtraBlacklist[0] != "bad.example" {
		t.Errorf("ExtraBlacklist = %v", security.ExtraBlacklist)
	}

	audit := cfg.GetAudit()
	if audit.Driver != "sqlite3" {
		t.Errorf("audit driver default = %q", audit.Driver)
	}
}
