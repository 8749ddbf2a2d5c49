package auth

import (
	"testing"

	"github.com/socraticlabs/elenchus/internal/config"
)

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		Projects: []config.ProjectConfig{
			{ID: "acme", APIKeys: []string{"k1", "k2"}},
			{ID: "beta", APIKeys: []string{"k3", ""}},
		},
	}
	a, err := NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}

	if !a.Required() {
		t.Error("keys are configured, auth should be required")
	}
	if p, ok := a.Lookup("k2"); !ok || p.ID != "acme" {
		t.Errorf("Lookup(k2) = %+v %v", p, ok)
	}
	if p, ok := a.Lookup("k3"); !ok || p.ID != "beta" {
		t.Errorf("Lookup(k3) = %+v %v", p, ok)
	}
	if _, ok := a.Lookup(""); ok {
		t.Error("empty keys must not be registered")
	}
	if _, ok := a.Lookup("nope"); ok {
		t.Error("unknown key resolved")
	}
}

func TestNewFromConfigRejectsSharedKey(t *testing.T) {
	cfg := &config.Config{
		Projects: []config.ProjectConfig{
			{ID: "a", APIKeys: []string{"k"}},
			{ID: "b", APIKeys: []string{"k"}},
		},
	}
	if _, err := NewFromConfig(cfg); err == nil {
		t.Fatal("expected duplicate key error")
	}
}

func TestNoKeysMeansOpenService(t *testing.T) {
	a, err := NewFromConfig(&config.Config{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if a.Required() {
		t.Error("no keys configured, auth must not be required")
	}

	var nilAuth *Auth
	if nilAuth.Required() {
		t.Error("nil auth must not be required")
	}
	if _, ok := nilAuth.Lookup("k"); ok {
		t.Error("nil auth resolved a key")
	}
}
