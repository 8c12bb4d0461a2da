package rowcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rzpsarthak13/rowcache/internal/registry"
	_ "github.com/rzpsarthak13/rowcache/internal/kvstore"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "rowcache.yaml",
			content: `
sync:
  provider: queue
writeback:
  drain_rate: 10
  poll_interval: 250ms
rowsets:
  users:
    page_size: 20
    key_columns: [id]
`,
		},
		{
			name: "json",
			file: "rowcache.json",
			content: `{
  "sync": {"provider": "queue"},
  "writeback": {"drain_rate": 10, "poll_interval": 250000000},
  "rowsets": {"users": {"page_size": 20, "key_columns": ["id"]}}
}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(writeFile(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadConfig: %v", err)
			}
			if cfg.Sync.Provider != "queue" {
				t.Errorf("Sync.Provider = %q, want queue", cfg.Sync.Provider)
			}
			if cfg.WriteBack.DrainRate != 10 || cfg.WriteBack.PollInterval != 250*time.Millisecond {
				t.Errorf("WriteBack = %+v", cfg.WriteBack)
			}
			// untouched keys keep their defaults
			if cfg.WriteBack.BatchSize != 100 || cfg.Database.Type != "sqlite" || cfg.Snapshot.Namespace != "rowcache" {
				t.Errorf("defaults lost: batch %d, db %q, namespace %q",
					cfg.WriteBack.BatchSize, cfg.Database.Type, cfg.Snapshot.Namespace)
			}
			users := cfg.RowSets["users"]
			if users.PageSize != 20 || len(users.KeyColumns) != 1 || users.KeyColumns[0] != "id" {
				t.Errorf("RowSets[users] = %+v", users)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing file")
	}
	if _, err := LoadConfig(writeFile(t, "rowcache.toml", "a = 1")); err == nil {
		t.Error("expected error for an unsupported extension")
	}
	if _, err := LoadConfig(writeFile(t, "rowcache.yaml", "sync: [")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// The YAML handed to the internal client must load into the same settings.
func TestConfigProviderYAML(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Snapshot.TTL = 90 * time.Minute
	scrollable := false
	cfg.RowSets["orders"] = RowSetConfig{PageSize: 50, Scrollable: &scrollable, Locale: "fr"}

	data, err := (&configProvider{config: cfg}).GetYAML()
	if err != nil {
		t.Fatal(err)
	}
	cm := registry.NewConfigManager()
	if err := cm.LoadFromYAML(data); err != nil {
		t.Fatalf("LoadFromYAML: %v\n%s", err, data)
	}

	internal := cm.GetConfig()
	if internal.Snapshot.TTL != 90*time.Minute {
		t.Errorf("Snapshot.TTL = %v", internal.Snapshot.TTL)
	}
	if internal.WriteBack.KafkaConfig.Topic != "rowcache-writeback" {
		t.Errorf("KafkaConfig.Topic = %q", internal.WriteBack.KafkaConfig.Topic)
	}
	if internal.KVStore.MemoryConfig.MaxCost != 64<<20 {
		t.Errorf("MemoryConfig.MaxCost = %d", internal.KVStore.MemoryConfig.MaxCost)
	}

	orders := cm.GetRowSetConfig("orders")
	if orders.PageSize != 50 || orders.Locale != "fr" || orders.Scrollable == nil || *orders.Scrollable {
		t.Errorf("orders = %+v", orders)
	}
}
