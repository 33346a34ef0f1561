package executor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/manifest"
	"gitlab.com/tinyland/lab/sdgen/pkg/sdapi"
	"gitlab.com/tinyland/lab/sdgen/pkg/session"
)

type infoResponse struct {
	Images []string `json:"images"`
	Info   string   `json:"info"`
}

func newTestServer(t *testing.T, failIndex int) *httptest.Server {
	t.Helper()
	var calls int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Seed int64 `json:"seed"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		n := atomic.AddInt32(&calls, 1) - 1
		if int(n) == failIndex {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("synthesis backend error"))
			return
		}
		info, _ := json.Marshal(struct {
			Seed int64 `json:"seed"`
		}{Seed: req.Seed})
		resp := infoResponse{
			Images: []string{base64.StdEncoding.EncodeToString([]byte("png-data"))},
			Info:   string(info),
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func promptsFor(n int) []docmodel.ResolvedPrompt {
	out := make([]docmodel.ResolvedPrompt, n)
	for i := range out {
		out[i] = docmodel.ResolvedPrompt{
			Index:   i,
			Prompt:  "masterpiece",
			Seed:    int64(42 + i),
			Applied: map[string]string{},
		}
	}
	return out
}

func TestRunScenarioFPartialFailure(t *testing.T) {
	srv := newTestServer(t, 2)
	defer srv.Close()

	root := t.TempDir()
	sess, err := session.New(root, "s", time.Now())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	mf, err := manifest.New(sess.ManifestPath(), manifest.Snapshot{})
	if err != nil {
		t.Fatalf("manifest.New: %v", err)
	}

	api := sdapi.NewClient(srv.URL, 5*time.Second)
	exec := New(api, sess, mf, nil, Config{FilenamePrefix: "s"}, nil, nil)

	summary := exec.Run(context.Background(), promptsFor(5))

	if summary.Succeeded != 4 {
		t.Fatalf("Succeeded = %d, want 4", summary.Succeeded)
	}
	if summary.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", summary.Failed)
	}
	if len(mf.Images) != 4 {
		t.Fatalf("manifest images = %d, want 4", len(mf.Images))
	}
	for _, img := range mf.Images {
		if _, err := os.Stat(filepath.Join(sess.Dir(), img.Filename)); err != nil {
			t.Fatalf("manifest entry %q has no file on disk: %v", img.Filename, err)
		}
	}
}

func TestRunDryRunSkipsAPIAndManifest(t *testing.T) {
	srv := newTestServer(t, -1)
	defer srv.Close()

	root := t.TempDir()
	sess, err := session.New(root, "s", time.Now())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	mf, err := manifest.New(sess.ManifestPath(), manifest.Snapshot{})
	if err != nil {
		t.Fatalf("manifest.New: %v", err)
	}

	api := sdapi.NewClient(srv.URL, 5*time.Second)
	exec := New(api, sess, mf, nil, Config{DryRun: true, FilenamePrefix: "s"}, nil, nil)

	summary := exec.Run(context.Background(), promptsFor(3))

	if summary.Succeeded != 3 || summary.Failed != 0 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(mf.Images) != 0 {
		t.Fatalf("dry-run manifest images = %d, want 0", len(mf.Images))
	}
	entries, _ := os.ReadDir(sess.Dir())
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".png" {
			t.Fatalf("dry-run wrote an image file: %s", e.Name())
		}
	}
}

func TestRunCancellationStopsBetweenIterations(t *testing.T) {
	srv := newTestServer(t, -1)
	defer srv.Close()

	root := t.TempDir()
	sess, err := session.New(root, "s", time.Now())
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	mf, err := manifest.New(sess.ManifestPath(), manifest.Snapshot{})
	if err != nil {
		t.Fatalf("manifest.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var processed int
	onProgress := func(p Progress) {
		processed++
		if processed == 2 {
			cancel()
		}
	}

	api := sdapi.NewClient(srv.URL, 5*time.Second)
	exec := New(api, sess, mf, nil, Config{FilenamePrefix: "s"}, nil, onProgress)

	summary := exec.Run(ctx, promptsFor(5))

	if !summary.Cancelled {
		t.Fatal("expected Cancelled = true")
	}
	if summary.Succeeded+summary.Failed != 2 {
		t.Fatalf("processed = %d, want 2", summary.Succeeded+summary.Failed)
	}
}
