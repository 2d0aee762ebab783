package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/HendryAvila/hikelog/internal/hikestore"
	"github.com/mark3labs/mcp-go/mcp"
)

func newHandler(t *testing.T) (*Handler, *hikestore.Store) {
	t.Helper()
	store, err := hikestore.New(hikestore.Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewHandler(store), store
}

func read(t *testing.T, handle func(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error), uri string) mcp.TextResourceContents {
	t.Helper()
	req := mcp.ReadResourceRequest{}
	req.Params.URI = uri
	contents, err := handle(context.Background(), req)
	if err != nil {
		t.Fatalf("read %s: %v", uri, err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("content type = %T", contents[0])
	}
	return tc
}

func TestHandleHikes(t *testing.T) {
	h, store := newHandler(t)
	store.AddHike(hikestore.NewHike("First", "A", "2024-01-01"))
	store.AddHike(hikestore.NewHike("Second", "B", "2024-02-01"))

	tc := read(t, h.HandleHikes, HikesURI)
	if tc.MIMEType != "application/json" {
		t.Errorf("MIMEType = %q", tc.MIMEType)
	}

	var hikes []hikestore.Hike
	if err := json.Unmarshal([]byte(tc.Text), &hikes); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(hikes) != 2 || hikes[0].Name != "Second" {
		t.Errorf("hikes = %+v", hikes)
	}
}

func TestHandleSchema(t *testing.T) {
	h, _ := newHandler(t)
	tc := read(t, h.HandleSchema, SchemaURI)

	var st hikestore.SchemaStatus
	if err := json.Unmarshal([]byte(tc.Text), &st); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if st.Version != hikestore.SchemaVersion {
		t.Errorf("Version = %d, want %d", st.Version, hikestore.SchemaVersion)
	}
	if len(st.Columns["observations"]) == 0 {
		t.Error("no observation columns reported")
	}
}

func TestResourceDefinitions(t *testing.T) {
	h, _ := newHandler(t)
	if got := h.HikesResource().URI; got != HikesURI {
		t.Errorf("HikesResource URI = %q", got)
	}
	if got := h.SchemaResource().URI; got != SchemaURI {
		t.Errorf("SchemaResource URI = %q", got)
	}
}
