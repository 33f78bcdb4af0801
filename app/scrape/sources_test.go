package scrape

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSourceConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".yml"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write source config: %v", err)
	}
}

func TestConfigCacheRun(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "qiita", "adapter: qiita\nsettings:\n  enabled: true\n")
	writeSourceConfig(t, dir, "zenn", "adapter: zenn\nsettings:\n  enabled: false\n")

	cache := NewConfigCache(dir)
	if err := cache.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if cache.GetConfigCount() != 2 {
		t.Errorf("Expected 2 configs, got %d", cache.GetConfigCount())
	}

	enabled := cache.GetEnabledConfigs()
	if len(enabled) != 1 {
		t.Fatalf("Expected 1 enabled config, got %d", len(enabled))
	}
	if _, ok := enabled["qiita"]; !ok {
		t.Error("Expected 'qiita' to be enabled")
	}

	config, err := cache.GetConfig("qiita")
	if err != nil {
		t.Fatalf("GetConfig failed: %v", err)
	}
	if config.Settings.RefreshInterval != 3600 {
		t.Errorf("Expected default refresh interval 3600, got %d", config.Settings.RefreshInterval)
	}
}

func TestConfigCacheMissingDirIsNoop(t *testing.T) {
	cache := NewConfigCache(filepath.Join(t.TempDir(), "does-not-exist"))
	if err := cache.Run(); err != nil {
		t.Fatalf("Expected missing directory to be tolerated, got %v", err)
	}
	if cache.GetConfigCount() != 0 {
		t.Errorf("Expected no configs, got %d", cache.GetConfigCount())
	}
}

func TestConfigValidation(t *testing.T) {
	dir := t.TempDir()
	writeSourceConfig(t, dir, "broken", "adapter: unknown\n")

	cache := NewConfigCache(dir)
	if err := cache.Run(); err == nil {
		t.Error("Expected unknown adapter type to fail validation")
	}

	dir2 := t.TempDir()
	writeSourceConfig(t, dir2, "nofeeds", "adapter: feed\nsettings:\n  enabled: true\n")

	cache2 := NewConfigCache(dir2)
	if err := cache2.Run(); err == nil {
		t.Error("Expected feed adapter without URLs to fail validation")
	}
}

func TestBuildAdapter(t *testing.T) {
	tests := []struct {
		adapter  string
		expected string
	}{
		{"qiita", "qiita"},
		{"zenn", "zenn"},
		{"hateb", "hateb"},
	}

	for _, tt := range tests {
		config := &SourceConfig{Name: tt.adapter, Adapter: tt.adapter}
		adapter, err := BuildAdapter(config, 7)
		if err != nil {
			t.Fatalf("BuildAdapter(%s) failed: %v", tt.adapter, err)
		}
		if adapter.Name() != tt.expected {
			t.Errorf("Expected adapter name %q, got %q", tt.expected, adapter.Name())
		}
	}

	feedConfig := &SourceConfig{Name: "company-blog", Adapter: "feed", FeedURLs: []string{"https://blog.example.com/feed.xml"}}
	adapter, err := BuildAdapter(feedConfig, 7)
	if err != nil {
		t.Fatalf("BuildAdapter(feed) failed: %v", err)
	}
	if adapter.Name() != "company-blog" {
		t.Errorf("Expected feed adapter named after source, got %q", adapter.Name())
	}
	if len(adapter.Seeds()) != 1 {
		t.Errorf("Expected 1 seed, got %v", adapter.Seeds())
	}
}
