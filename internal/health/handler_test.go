package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/eleven-am/live-commentary/internal/commentary"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type staticWidgets []commentary.State

func (s staticWidgets) List() []commentary.State {
	return s
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestLiveness(t *testing.T) {
	rec := serve(NewHandler(nil, nil, nil, "test"), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_Healthy(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	widgets := staticWidgets{
		{ID: "wgt_a", Capturing: true, Queued: 2},
		{ID: "wgt_b", Generating: true},
	}
	h := NewHandler(db, rdb, widgets, "test")
	h.IncrementRequests()

	rec := serve(h, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("expected healthy, got %s", resp.Status)
	}
	if len(resp.Components) != 2 {
		t.Errorf("expected database and redis checks, got %v", resp.Components)
	}
	w := resp.Stats.Widgets
	if w.Total != 2 || w.Capturing != 1 || w.Generating != 1 || w.Queued != 2 {
		t.Errorf("unexpected widget stats %+v", w)
	}
	if resp.Stats.Requests.TotalRequests != 1 {
		t.Errorf("expected 1 request counted, got %d", resp.Stats.Requests.TotalRequests)
	}
	if resp.Version != "test" {
		t.Errorf("unexpected version %s", resp.Version)
	}
}

func TestReadiness_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	rec := serve(NewHandler(nil, rdb, nil, "test"), "/readyz")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReadiness_NoBackends(t *testing.T) {
	rec := serve(NewHandler(nil, nil, nil, "test"), "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestWidgets(t *testing.T) {
	rec := serve(NewHandler(nil, nil, staticWidgets{{ID: "wgt_a"}}, "test"), "/health/widgets")

	var resp WidgetsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Widgets[0].ID != "wgt_a" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestComputeOverallStatus(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]ComponentStatus
		want       Status
	}{
		{"empty", map[string]ComponentStatus{}, StatusHealthy},
		{"degraded", map[string]ComponentStatus{"database": {Status: StatusDegraded}}, StatusDegraded},
		{"unhealthy", map[string]ComponentStatus{"redis": {Status: StatusUnhealthy}, "database": {Status: StatusHealthy}}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := computeOverallStatus(tt.components); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}
