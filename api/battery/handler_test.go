package battery

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/battery-health/core/model"
)

type fakeService struct {
	status    model.BatteryStatus
	ok        bool
	readings  []model.Reading
	requested []int
	panicOn   bool
}

func (f *fakeService) Current() (model.BatteryStatus, bool) {
	if f.panicOn {
		panic("boom")
	}
	return f.status, f.ok
}

func (f *fakeService) History(n int) []model.Reading {
	f.requested = append(f.requested, n)
	if n > len(f.readings) {
		n = len(f.readings)
	}
	return f.readings[len(f.readings)-n:]
}

func sampleReadings(n int) []model.Reading {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	out := make([]model.Reading, n)
	for i := range out {
		out[i] = model.Reading{
			Timestamp:        base.Add(time.Duration(i) * 2 * time.Second),
			Temperature:      20 + float64(i),
			Health:           100 - float64(i)*0.01,
			PowerConsumption: 40,
		}
	}
	return out
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestBatteryDataUnavailable(t *testing.T) {
	h := NewRouter(&fakeService{}, RouterConfig{})
	rec := serve(t, h, http.MethodGet, "/api/battery-data")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestBatteryDataServesStatus(t *testing.T) {
	r := sampleReadings(1)[0]
	r.DoD = 42
	svc := &fakeService{ok: true, status: model.NewBatteryStatus(r, model.Prediction{Health: 87.3, RemainingDistance: 312.5})}
	h := NewRouter(svc, RouterConfig{})

	rec := serve(t, h, http.MethodGet, "/api/battery-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.InDelta(t, 87.3, body["health"], 1e-9)
	assert.InDelta(t, 312.5, body["remaining_distance"], 1e-9)
	assert.InDelta(t, 42, body["dod"], 1e-9)
	assert.Contains(t, body, "timestamp")
	assert.Contains(t, body, "power_consumption")
}

func TestHistoryDefaultsAndLimit(t *testing.T) {
	svc := &fakeService{readings: sampleReadings(10)}
	h := NewRouter(svc, RouterConfig{HistoryLimit: 5})

	rec := serve(t, h, http.MethodGet, "/api/history")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []model.Reading
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 5)

	rec = serve(t, h, http.MethodGet, "/api/history?limit=3")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.True(t, got[0].Timestamp.Before(got[2].Timestamp))
	assert.Equal(t, []int{5, 3}, svc.requested)
}

func TestHistoryRejectsBadLimit(t *testing.T) {
	h := NewRouter(&fakeService{}, RouterConfig{})
	for _, q := range []string{"abc", "0", "-4", "1.5"} {
		rec := serve(t, h, http.MethodGet, "/api/history?limit="+q)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestHealthz(t *testing.T) {
	rec := serve(t, NewRouter(&fakeService{}, RouterConfig{}), http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	rec := serve(t, NewRouter(&fakeService{}, RouterConfig{}), http.MethodPost, "/api/battery-data")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsMountedWhenConfigured(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("battery_readings_total 1\n"))
	})
	rec := serve(t, NewRouter(&fakeService{}, RouterConfig{Metrics: metrics}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "battery_readings_total")

	rec = serve(t, NewRouter(&fakeService{}, RouterConfig{}), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardRendersCharts(t *testing.T) {
	r := sampleReadings(1)[0]
	svc := &fakeService{
		ok:       true,
		status:   model.NewBatteryStatus(r, model.Prediction{Health: 91.2, RemainingDistance: 250}),
		readings: sampleReadings(4),
	}
	rec := serve(t, NewRouter(svc, RouterConfig{}), http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, body, "Battery Health")
	assert.Contains(t, body, "Power consumption")
	assert.Contains(t, body, "91.2")
	assert.Contains(t, body, "03:04:05")
}

func TestDashboardWithoutReadings(t *testing.T) {
	rec := serve(t, NewRouter(&fakeService{}, RouterConfig{}), http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "waiting for the first reading")
}

func TestRecoversFromPanics(t *testing.T) {
	rec := serve(t, NewRouter(&fakeService{panicOn: true}, RouterConfig{}), http.MethodGet, "/api/battery-data")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHistoryCSV(t *testing.T) {
	svc := &fakeService{readings: sampleReadings(3)}
	rec := serve(t, NewRouter(svc, RouterConfig{}), http.MethodGet, "/api/history?format=csv&limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,temperature"))

	rec = serve(t, NewRouter(svc, RouterConfig{}), http.MethodGet, "/api/history?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
