package sdmetrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesRecordedMetrics(t *testing.T) {
	RecordImageGenerated()
	RecordImageFailed("api_error")

	exp := NewExporter(":0")
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	exp.Handler().ServeHTTP(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "sdgen_images_generated_total") {
		t.Fatalf("body missing images_generated_total metric: %s", body)
	}
	if !strings.Contains(body, "sdgen_images_failed_total") {
		t.Fatalf("body missing images_failed_total metric: %s", body)
	}
}
