package exporters

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smazurov/camsession/internal/metrics"
	"github.com/smazurov/camsession/pkg/camera"
)

func TestHTTPHandler(t *testing.T) {
	handler := HTTPHandler()
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}

	cameraID := "http-test-camera"
	metrics.NewSink(cameraID).FrameDelivered(camera.GenerationRequest)
	defer metrics.DeleteCameraMetrics(cameraID)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "camsession_frames_delivered_total") {
		t.Error("expected prometheus metrics in response")
	}
}

func TestHandlerFor(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "isolated_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	HandlerFor(reg).ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "isolated_total 1") {
		t.Errorf("expected isolated counter, got %s", body)
	}
	if strings.Contains(body, "camsession_") {
		t.Error("expected only the isolated registry")
	}
}
