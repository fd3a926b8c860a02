package testsupport

import (
	"path/filepath"
	"testing"

	"animedb/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The LLM is disabled unless a test sets a key.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.LLM.APIKey = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	builder.fillStorePaths()
	return builder.cfg
}

func (b *configBuilder) fillStorePaths() {
	if b.cfg.Store.Path == "" {
		name := "catalog.db"
		if b.cfg.Store.Backend == config.BackendCSV {
			name = "catalog.csv"
		}
		b.cfg.Store.Path = filepath.Join(b.cfg.Paths.DataDir, name)
	}
	if b.cfg.Store.LockPath == "" {
		b.cfg.Store.LockPath = b.cfg.Store.Path + ".lock"
	}
}

// WithBackend selects the catalog storage backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithUploaders seeds the uploader allow-list.
func WithUploaders(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Access.Uploaders = append([]string(nil), ids...)
	}
}

// WithAPIToken sets the bearer token required by the HTTP API.
func WithAPIToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.Token = token
	}
}

// WithLLM points the LLM client at baseURL with a test key.
func WithLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = "test"
		b.cfg.LLM.BaseURL = baseURL
	}
}

// WithNtfyTopic enables notifications against the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the temp root used for the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
