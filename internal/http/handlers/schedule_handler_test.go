// README: Schedule handler tests using a stub scheduler.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"ridesched/internal/http/handlers"
	"ridesched/internal/modules/scheduling"
	"ridesched/internal/types"
)

// stubScheduler is a test double for handlers.Scheduler.
type stubScheduler struct {
	result      scheduling.Result
	err         error
	assignments []scheduling.Assignment
	lastCmd     scheduling.ScheduleCommand
	lastBatch   types.ID
	lastBatches []types.ID
	results     map[types.ID]scheduling.Result
}

func (s *stubScheduler) Schedule(_ context.Context, cmd scheduling.ScheduleCommand) (scheduling.Result, error) {
	s.lastCmd = cmd
	return s.result, s.err
}

func (s *stubScheduler) ScheduleBatch(_ context.Context, id types.ID) (scheduling.Result, error) {
	s.lastBatch = id
	return s.result, s.err
}

func (s *stubScheduler) ScheduleBatches(_ context.Context, ids []types.ID) (map[types.ID]scheduling.Result, error) {
	s.lastBatches = ids
	return s.results, s.err
}

func (s *stubScheduler) Assignments(_ context.Context, id types.ID) ([]scheduling.Assignment, error) {
	s.lastBatch = id
	return s.assignments, s.err
}

func buildTestRouter(s handlers.Scheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := handlers.NewScheduleHandler(s)
	r.POST("/api/schedules", h.Schedule)
	r.POST("/api/schedules/batches", h.ScheduleBatches)
	r.POST("/api/batches/:id/schedule", h.ScheduleBatch)
	r.GET("/api/batches/:id/assignments", h.Assignments)
	return r
}

func doRequest(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		_ = json.NewEncoder(&buf).Encode(v)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestSchedule_DecodesBody(t *testing.T) {
	stub := &stubScheduler{result: scheduling.Result{
		Status:      scheduling.StatusSolved,
		Assignments: []scheduling.Assignment{{RideRequest: scheduling.RideRequest{ID: "r1"}, DriverID: "d1"}},
	}}
	r := buildTestRouter(stub)

	w := doRequest(r, http.MethodPost, "/api/schedules", map[string]any{
		"requests": []map[string]any{{"id": "r1", "start_time": "2026-03-02T09:00:00Z", "end_time": "2026-03-02T10:00:00Z", "rider_id": "p1"}},
		"drivers":  []map[string]any{{"id": "d1", "shift_start": "08:00", "shift_end": "17:00", "breaks": []map[string]any{{"weekday": 1, "start": "12:00", "end": "13:00"}}}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(stub.lastCmd.Requests) != 1 || stub.lastCmd.Requests[0].RiderID != "p1" {
		t.Fatalf("requests not decoded: %+v", stub.lastCmd.Requests)
	}
	if len(stub.lastCmd.Drivers) != 1 || len(stub.lastCmd.Drivers[0].Breaks) != 1 {
		t.Fatalf("drivers not decoded: %+v", stub.lastCmd.Drivers)
	}

	var got struct {
		Status      string `json:"status"`
		Assignments []struct {
			ID       string `json:"id"`
			DriverID string `json:"driver_id"`
		} `json:"assignments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Status != "solved" || len(got.Assignments) != 1 || got.Assignments[0].DriverID != "d1" || got.Assignments[0].ID != "r1" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestSchedule_InfeasibleIsOK(t *testing.T) {
	r := buildTestRouter(&stubScheduler{result: scheduling.Result{Status: scheduling.StatusExhausted}})
	w := doRequest(r, http.MethodPost, "/api/schedules", map[string]any{"requests": []any{}, "drivers": []any{}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`"status":"infeasible"`)) {
		t.Fatalf("expected infeasible status, got %s", w.Body.String())
	}
}

func TestSchedule_InvalidJSON(t *testing.T) {
	r := buildTestRouter(&stubScheduler{})
	w := doRequest(r, http.MethodPost, "/api/schedules", "{not json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSchedule_ErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&scheduling.ValidationError{Field: "requests", Index: 0, Reason: "bad"}, http.StatusBadRequest},
		{scheduling.ErrBadRequest, http.StatusBadRequest},
		{fmt.Errorf("%w: %w", scheduling.ErrSearchAborted, context.DeadlineExceeded), http.StatusServiceUnavailable},
		{scheduling.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		r := buildTestRouter(&stubScheduler{err: tc.err})
		w := doRequest(r, http.MethodPost, "/api/schedules", map[string]any{"requests": []any{}, "drivers": []any{}})
		if w.Code != tc.want {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestScheduleBatch(t *testing.T) {
	stub := &stubScheduler{result: scheduling.Result{Status: scheduling.StatusSolved}}
	r := buildTestRouter(stub)

	w := doRequest(r, http.MethodPost, "/api/batches/batch_42/schedule", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if stub.lastBatch != "batch_42" {
		t.Fatalf("expected batch_42, got %q", stub.lastBatch)
	}

	w = doRequest(r, http.MethodPost, "/api/batches/bad%20id!/schedule", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", w.Code)
	}

	stub.err = scheduling.ErrNotFound
	w = doRequest(r, http.MethodPost, "/api/batches/missing/schedule", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestAssignments(t *testing.T) {
	stub := &stubScheduler{assignments: []scheduling.Assignment{
		{RideRequest: scheduling.RideRequest{ID: "r1"}, DriverID: "d1"},
		{RideRequest: scheduling.RideRequest{ID: "r2"}, DriverID: "d2"},
	}}
	r := buildTestRouter(stub)

	w := doRequest(r, http.MethodGet, "/api/batches/b1/assignments", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got struct {
		BatchID     string `json:"batch_id"`
		Assignments []struct {
			DriverID string `json:"driver_id"`
		} `json:"assignments"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.BatchID != "b1" || len(got.Assignments) != 2 || got.Assignments[1].DriverID != "d2" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestScheduleBatches(t *testing.T) {
	stub := &stubScheduler{results: map[types.ID]scheduling.Result{
		"b1": {Status: scheduling.StatusSolved},
		"b2": {Status: scheduling.StatusExhausted},
	}}
	r := buildTestRouter(stub)

	w := doRequest(r, http.MethodPost, "/api/schedules/batches", map[string]any{"batch_ids": []string{"b1", "b2"}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(stub.lastBatches) != 2 || stub.lastBatches[0] != "b1" || stub.lastBatches[1] != "b2" {
		t.Fatalf("unexpected batch ids: %v", stub.lastBatches)
	}
	var got struct {
		Results map[string]struct {
			Status string `json:"status"`
		} `json:"results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Results["b1"].Status != "solved" || got.Results["b2"].Status != "infeasible" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestScheduleBatches_BadInput(t *testing.T) {
	r := buildTestRouter(&stubScheduler{})

	w := doRequest(r, http.MethodPost, "/api/schedules/batches", "{")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid json, got %d", w.Code)
	}
	w = doRequest(r, http.MethodPost, "/api/schedules/batches", map[string]any{"batch_ids": []string{"ok", "not ok!"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid id, got %d", w.Code)
	}

	r = buildTestRouter(&stubScheduler{err: fmt.Errorf("%w: no batch ids", scheduling.ErrBadRequest)})
	w = doRequest(r, http.MethodPost, "/api/schedules/batches", map[string]any{"batch_ids": []string{}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty list, got %d", w.Code)
	}

	r = buildTestRouter(&stubScheduler{err: scheduling.ErrNotFound})
	w = doRequest(r, http.MethodPost, "/api/schedules/batches", map[string]any{"batch_ids": []string{"ghost"}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown batch, got %d", w.Code)
	}
}
