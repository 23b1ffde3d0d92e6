package handlers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"controlling_window/internal/models"
	"controlling_window/internal/service"
)

func testSamples() []models.SensorSample {
	at := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)
	return []models.SensorSample{
		{Time: at, Phase: "unknown", Temperature: -1, Humidity: -1, Valid: false},
		{Time: at.Add(time.Minute), Phase: "opening", Temperature: 22.3, Humidity: 65, Valid: true},
	}
}

func TestSamplesHandler_JSON(t *testing.T) {
	sl := &mockSampleLog{resp: testSamples()}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, SampleLog: sl})

	w := doJSON(t, r, "GET", "/api/v1/samples?from=2025-09-01", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count   int                   `json:"count"`
		Samples []models.SensorSample `json:"samples"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Count != 2 || len(out.Samples) != 2 || out.Samples[1].Phase != "opening" {
		t.Fatalf("unexpected response: %+v", out)
	}
	if !sl.lastFilter.From.Equal(time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("from not passed through: %v", sl.lastFilter.From)
	}
}

func TestSamplesHandler_CSV(t *testing.T) {
	sl := &mockSampleLog{resp: testSamples()}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, SampleLog: sl})

	w := doJSON(t, r, "GET", "/api/v1/samples.csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("content type=%q", ct)
	}
	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	want := [][]string{
		sampleCSVHeader,
		{"2025-09-01T10:00:00Z", "unknown", "-1.0", "-1.0", "false"},
		{"2025-09-01T10:01:00Z", "opening", "65.0", "22.3", "true"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows=%d want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		if strings.Join(rows[i], ",") != strings.Join(want[i], ",") {
			t.Fatalf("row %d=%v want %v", i, rows[i], want[i])
		}
	}
}

func TestSamplesHandler_Errors(t *testing.T) {
	sl := &mockSampleLog{err: errors.New("db down")}
	r := newTestRouter(&service.Service{Authorization: &mockAuth{parseID: 1}, SampleLog: sl})

	if w := doJSON(t, r, "GET", "/api/v1/samples", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if w := doJSON(t, r, "GET", "/api/v1/samples.csv?to=never", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
