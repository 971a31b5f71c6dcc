package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/maksimkurb/tinydnsproxy/src/internal/testutil"
)

func newValidConfig(t *testing.T) *Config {
	t.Helper()

	return &Config{
		General: &GeneralConfig{
			BindIP:                 "127.0.0.1",
			BindPort:               53,
			RefreshBlocklistsAfter: 60,
		},
		HTTPBlockLists: []*HTTPBlockList{{URL: "http://example.com/list.txt"}},
		FileBlockLists: []*FileBlockList{{Path: "local.txt"}},
		DoTProviders: []*DoTProvider{
			{IP: "1.1.1.1", Port: 853, Hostname: "cloudflare-dns.com"},
		},
		_absConfigFilePath: filepath.Join(t.TempDir(), "config.toml"),
	}
}

func requireFieldError(t *testing.T, err error, fieldPath string) {
	t.Helper()

	if err == nil {
		t.Fatalf("Expected validation error for %s, got nil", fieldPath)
	}
	var ve ValidationErrors
	if !errors.As(err, &ve) {
		t.Fatalf("Expected ValidationErrors, got %T: %v", err, err)
	}
	for _, e := range ve {
		if e.FieldPath == fieldPath {
			return
		}
	}
	t.Errorf("Expected error on %s, got: %v", fieldPath, err)
}

func TestValidateConfig_Valid(t *testing.T) {
	if err := newValidConfig(t).ValidateConfig(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestValidateConfig_MissingGeneral(t *testing.T) {
	cfg := newValidConfig(t)
	cfg.General = nil

	requireFieldError(t, cfg.ValidateConfig(), "general")
}

func TestValidateConfig_GeneralFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*GeneralConfig)
		fieldPath string
	}{
		{"bad bind ip", func(g *GeneralConfig) { g.BindIP = "localhost" }, "general.bind_ip"},
		{"missing bind ip", func(g *GeneralConfig) { g.BindIP = "" }, "general.bind_ip"},
		{"zero port", func(g *GeneralConfig) { g.BindPort = 0 }, "general.bind_port"},
		{"zero refresh interval", func(g *GeneralConfig) { g.RefreshBlocklistsAfter = 0 }, "general.refresh_blocklists_after"},
		{"negative workers", func(g *GeneralConfig) { g.WorkerThreads = -1 }, "general.worker_threads"},
		{"huge timeout", func(g *GeneralConfig) { g.UpstreamTimeoutSeconds = 301 }, "general.upstream_timeout_seconds"},
		{"bad api listen", func(g *GeneralConfig) { g.APIListen = "no-port" }, "general.api_listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig(t)
			tt.mutate(cfg.General)
			requireFieldError(t, cfg.ValidateConfig(), tt.fieldPath)
		})
	}
}

func TestValidateConfig_APIListenAccepted(t *testing.T) {
	cfg := newValidConfig(t)
	cfg.General.APIListen = "127.0.0.1:8080"

	if err := cfg.ValidateConfig(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestValidateConfig_BlockLists(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantError bool
	}{
		{"https", "https://example.com/hosts", false},
		{"http with port", "http://10.0.0.1:8080/hosts", false},
		{"ftp scheme", "ftp://example.com/hosts", true},
		{"no host", "http:///hosts", true},
		{"not a url", "example.com/hosts", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig(t)
			cfg.HTTPBlockLists[0].URL = tt.url

			err := cfg.ValidateConfig()
			if tt.wantError {
				requireFieldError(t, err, "http_block_list.0.url")
			} else if err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}

	t.Run("empty file path", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.FileBlockLists[0].Path = ""
		requireFieldError(t, cfg.ValidateConfig(), "file_block_list.0.path")
	})
}

func TestValidateConfig_Providers(t *testing.T) {
	tests := []struct {
		name      string
		provider  DoTProvider
		fieldPath string
	}{
		{"bad ip", DoTProvider{IP: "one.one.one.one", Port: 853, Hostname: "cloudflare-dns.com"}, "dot_provider.0.ip"},
		{"zero port", DoTProvider{IP: "1.1.1.1", Port: 0, Hostname: "cloudflare-dns.com"}, "dot_provider.0.port"},
		{"missing hostname", DoTProvider{IP: "1.1.1.1", Port: 853}, "dot_provider.0.hostname"},
		{"bad hostname", DoTProvider{IP: "1.1.1.1", Port: 853, Hostname: "bad host"}, "dot_provider.0.hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newValidConfig(t)
			p := tt.provider
			cfg.DoTProviders = []*DoTProvider{&p}
			requireFieldError(t, cfg.ValidateConfig(), tt.fieldPath)
		})
	}
}

func TestValidateConfig_DuplicateProviders(t *testing.T) {
	cfg := newValidConfig(t)
	cfg.DoTProviders = append(cfg.DoTProviders, &DoTProvider{IP: "1.1.1.1", Port: 853, Hostname: "cloudflare-dns.com"})

	err := cfg.ValidateConfig()
	requireFieldError(t, err, "dot_provider.1")
	if !strings.Contains(err.Error(), "duplicate provider") {
		t.Errorf("Expected duplicate provider message, got %v", err)
	}
}

func TestValidateConfig_PinnedCertificate(t *testing.T) {
	t.Run("valid certificate", func(t *testing.T) {
		cfg := newValidConfig(t)
		_, certPEM := testutil.SelfSignedCert(t, "cloudflare-dns.com")
		testutil.WriteFile(t, cfg.GetConfigDir(), "certs/cf.pem", certPEM)
		cfg.DoTProviders[0].Cert = "certs/cf.pem"

		if err := cfg.ValidateConfig(); err != nil {
			t.Errorf("Expected no error, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := newValidConfig(t)
		cfg.DoTProviders[0].Cert = "certs/missing.pem"

		err := cfg.ValidateConfig()
		requireFieldError(t, err, "dot_provider.0.cert")
		if !strings.Contains(err.Error(), "does not exist") {
			t.Errorf("Expected missing file message, got %v", err)
		}
	})

	t.Run("not a certificate", func(t *testing.T) {
		cfg := newValidConfig(t)
		testutil.WriteFile(t, cfg.GetConfigDir(), "garbage.pem", []byte("not a pem file"))
		cfg.DoTProviders[0].Cert = "garbage.pem"

		requireFieldError(t, cfg.ValidateConfig(), "dot_provider.0.cert")
	})
}

func TestValidationErrors_Error(t *testing.T) {
	ve := ValidationErrors{
		{FieldPath: "general.bind_ip", Message: "must be a valid IP address"},
		{ItemName: "dns.example", FieldPath: "dot_provider.0.port", Message: "field is required"},
	}

	msg := ve.Error()
	if !strings.Contains(msg, "2 error(s)") {
		t.Errorf("Expected error count in message, got %q", msg)
	}
	if !strings.Contains(msg, "[dns.example] dot_provider.0.port") {
		t.Errorf("Expected item name in message, got %q", msg)
	}
	if (ValidationErrors{}).Error() != "no validation errors" {
		t.Error("Expected empty message for no errors")
	}
}
