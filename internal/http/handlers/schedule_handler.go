// README: Schedule handlers: inline solve, stored batch solve, assignment listing.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridesched/internal/modules/scheduling"
	"ridesched/internal/types"
)

type Scheduler interface {
	Schedule(ctx context.Context, cmd scheduling.ScheduleCommand) (scheduling.Result, error)
	ScheduleBatch(ctx context.Context, batchID types.ID) (scheduling.Result, error)
	ScheduleBatches(ctx context.Context, batchIDs []types.ID) (map[types.ID]scheduling.Result, error)
	Assignments(ctx context.Context, batchID types.ID) ([]scheduling.Assignment, error)
}

type ScheduleHandler struct {
	scheduler Scheduler
}

func NewScheduleHandler(s Scheduler) *ScheduleHandler {
	return &ScheduleHandler{scheduler: s}
}

type scheduleReq struct {
	Requests []scheduling.RideRequest `json:"requests"`
	Drivers  []scheduling.Driver      `json:"drivers"`
}

func (h *ScheduleHandler) Schedule(c *gin.Context) {
	var req scheduleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	res, err := h.scheduler.Schedule(c.Request.Context(), scheduling.ScheduleCommand{
		Requests: req.Requests,
		Drivers:  req.Drivers,
	})
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *ScheduleHandler) ScheduleBatch(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid batch id")
		return
	}
	res, err := h.scheduler.ScheduleBatch(c.Request.Context(), types.ID(id))
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

const maxBatchesPerRequest = 100

type scheduleBatchesReq struct {
	BatchIDs []string `json:"batch_ids"`
}

// ScheduleBatches solves several stored batches in one call. The response maps
// each batch id to its result; any failing batch fails the whole request.
func (h *ScheduleHandler) ScheduleBatches(c *gin.Context) {
	var req scheduleBatchesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(req.BatchIDs) > maxBatchesPerRequest {
		writeError(c, http.StatusBadRequest, "too many batch ids")
		return
	}
	ids := make([]types.ID, 0, len(req.BatchIDs))
	for _, id := range req.BatchIDs {
		if !isValidID(id) {
			writeError(c, http.StatusBadRequest, "invalid batch id")
			return
		}
		ids = append(ids, types.ID(id))
	}
	results, err := h.scheduler.ScheduleBatches(c.Request.Context(), ids)
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"results": results})
}

func (h *ScheduleHandler) Assignments(c *gin.Context) {
	id := c.Param("id")
	if !isValidID(id) {
		writeError(c, http.StatusBadRequest, "invalid batch id")
		return
	}
	as, err := h.scheduler.Assignments(c.Request.Context(), types.ID(id))
	if err != nil {
		writeScheduleError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"batch_id": id, "assignments": as})
}
