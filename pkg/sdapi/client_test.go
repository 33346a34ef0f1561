package sdapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
)

func TestGenerateDecodesImageAndSeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sdapi/v1/txt2img" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Prompt != "masterpiece, smiling" {
			t.Fatalf("prompt = %q", req.Prompt)
		}
		info, _ := json.Marshal(InfoRecord{Seed: 4242})
		resp := generateResponse{
			Images: []string{base64.StdEncoding.EncodeToString([]byte("fake-png"))},
			Info:   string(info),
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	imageBytes, info, err := client.Generate(context.Background(), "masterpiece, smiling", "", -1, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(imageBytes) != "fake-png" {
		t.Fatalf("imageBytes = %q", imageBytes)
	}
	if info.Seed != 4242 {
		t.Fatalf("seed = %d, want 4242", info.Seed)
	}
}

func TestGenerateBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	_, _, err := client.Generate(context.Background(), "x", "", 1, nil)
	if err == nil {
		t.Fatal("expected BackendError")
	}
}

func TestFetchCheckpointUnknownOnFailure(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", 100*time.Millisecond)
	got := client.FetchCheckpoint(context.Background())
	if got != "unknown" {
		t.Fatalf("FetchCheckpoint = %q, want unknown", got)
	}
}

func TestBuildRequestIncludesADetailer(t *testing.T) {
	cfg := &docmodel.ADetailerConfig{Detectors: []docmodel.ADetailerDetector{{Model: "face_yolov8n.pt"}}}
	req := BuildRequest("p", "n", 1, map[string]interface{}{"adetailer": cfg, "steps": 20})
	if req.Steps != 20 {
		t.Fatalf("steps = %d", req.Steps)
	}
	scripts, ok := req.AlwaysOnScripts["ADetailer"].(map[string]interface{})
	if !ok {
		t.Fatal("expected ADetailer key in alwayson_scripts")
	}
	args, ok := scripts["args"].([]interface{})
	if !ok || len(args) != 2+adetailerArgsPerDetector {
		t.Fatalf("args = %+v", args)
	}
}
