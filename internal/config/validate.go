package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the loaded config for required fields and safe values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return errors.New("server.addr must be set")
	}

	if err := validateEngineConfig("engine", cfg.Engine); err != nil {
		return err
	}

	seenKeys := make(map[string]string)
	for _, p := range cfg.Projects {
		if strings.TrimSpace(p.ID) == "" {
			return errors.New("project id must be set")
		}
		for _, key := range p.APIKeys {
			if key == "" {
				continue
			}
			if other, dup := seenKeys[key]; dup && other != p.ID {
				return fmt.Errorf("api key assigned to both project %q and %q", other, p.ID)
			}
			seenKeys[key] = p.ID
		}
		if p.Engine != nil {
			if err := validateEngineConfig(fmt.Sprintf("project %q engine", p.ID), *p.Engine); err != nil {
				return err
			}
		}
	}

	if err := validateAuditConfig(cfg.Audit); err != nil {
		return err
	}

	if err := validateTelemetryConfig(cfg.Telemetry); err != nil {
		return err
	}

	if cfg.MLAssist.Enabled && strings.TrimSpace(cfg.MLAssist.BundleDir) == "" {
		return errors.New("ml_assist.bundle_dir must be set when ml_assist is enabled")
	}

	return nil
}

func validateEngineConfig(name string, ec EngineConfig) error {
	if ec.CodeBlockLineThreshold < 0 {
		return fmt.Errorf("%s: code_block_line_threshold must not be negative", name)
	}
	if ec.ProseSentenceThreshold < 0 {
		return fmt.Errorf("%s: prose_sentence_threshold must not be negative", name)
	}
	if ec.MaxInputLength < 0 {
		return fmt.Errorf("%s: max_input_length must not be negative", name)
	}
	return nil
}

func validateAuditConfig(ac AuditConfig) error {
	if !ac.Enabled {
		return nil
	}
	if ac.File == "" && ac.WebhookURL == "" {
		return errors.New("audit enabled but neither file nor webhook_url is set")
	}
	if ac.WebhookURL != "" {
		u, err := url.Parse(ac.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("audit.webhook_url %q is not a valid http(s) URL", ac.WebhookURL)
		}
	}
	return nil
}

func validateTelemetryConfig(tc TelemetryConfig) error {
	if !tc.Enabled {
		return nil
	}
	if strings.TrimSpace(tc.Endpoint) == "" {
		return errors.New("telemetry enabled but endpoint is empty")
	}
	switch strings.ToLower(tc.Protocol) {
	case "", "grpc", "http":
	default:
		return fmt.Errorf("telemetry.protocol %q must be grpc or http", tc.Protocol)
	}
	return nil
}
