// README: API gateway; registers HTTP routes and delegates to the scheduling service.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ridesched/internal/http/handlers"
	"ridesched/internal/http/middleware"
	"ridesched/pkg/logger"
)

type ServerDeps struct {
	Scheduling handlers.Scheduler
	Log        logger.Logger
	// Gatherer backs GET /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

type Server struct {
	scheduling handlers.Scheduler
	log        logger.Logger
	gatherer   prometheus.Gatherer
}

func NewServer(deps ServerDeps) *Server {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{scheduling: deps.Scheduling, log: log, gatherer: deps.Gatherer}
}

func (s *Server) Routes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(s.log), middleware.Logging(s.log))

	scheduleHandler := handlers.NewScheduleHandler(s.scheduling)
	api := r.Group("/api")
	api.POST("/schedules", scheduleHandler.Schedule)
	api.POST("/schedules/batches", scheduleHandler.ScheduleBatches)
	api.POST("/batches/:id/schedule", scheduleHandler.ScheduleBatch)
	api.GET("/batches/:id/assignments", scheduleHandler.Assignments)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}
