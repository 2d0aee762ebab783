package server

import (
	"strings"
	"testing"

	"github.com/HendryAvila/hikelog/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestNew_RegistersEverything(t *testing.T) {
	s, cleanup, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer cleanup()

	tools := s.ListTools()
	for _, name := range []string{
		"hike_add", "hike_get", "hike_list", "hike_update", "hike_delete", "hike_delete_all",
		"hike_search", "hike_advanced_search",
		"observation_add", "observation_get", "observation_list", "observation_update", "observation_delete",
		"hike_stats", "hikelog_export", "hikelog_import",
	} {
		if _, ok := tools[name]; !ok {
			t.Errorf("tool %q not registered", name)
		}
	}
	if len(tools) != 16 {
		t.Errorf("registered %d tools, want 16", len(tools))
	}
}

func TestNew_StoreFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.DBFile = "missing-dir/x.db"

	_, cleanup, err := New(cfg)
	if err == nil {
		t.Fatal("expected error when the database cannot be opened")
	}
	if cleanup == nil {
		t.Fatal("cleanup must never be nil")
	}
	cleanup()
}

func TestServerInstructions_MentionsTools(t *testing.T) {
	text := serverInstructions()
	for _, want := range []string{"hike_add", "observation_add", "hike_search", "confirm=true"} {
		if !strings.Contains(text, want) {
			t.Errorf("instructions missing %q", want)
		}
	}
}
