package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/realtime"
	"github.com/vitalwatch/vitalwatch/internal/services"
)

// Server exposes the monitoring pipeline over REST plus an SSE stream.
// Authentication happens upstream; the gateway forwards the caller's
// identity in X-User-ID.
type Server struct {
	monitor     *services.MonitorService
	alerts      *services.AlertService
	assignments *services.AssignmentService
	guardians   *services.GuardianService
	ai          *services.AIService
	users       domain.UserRepository
	hub         *realtime.Hub
	// readingLimit caps how much history the dashboard reading queries
	// return by default; configured wider than the analysis window.
	readingLimit int
	logger       *slog.Logger
}

// NewServer wires the HTTP surface. The AI service may be nil when no
// provider key is configured; its endpoints then answer 503.
func NewServer(
	monitor *services.MonitorService,
	alerts *services.AlertService,
	assignments *services.AssignmentService,
	guardians *services.GuardianService,
	ai *services.AIService,
	users domain.UserRepository,
	hub *realtime.Hub,
	readingLimit int,
	logger *slog.Logger,
) *Server {
	return &Server{
		monitor:      monitor,
		alerts:       alerts,
		assignments:  assignments,
		guardians:    guardians,
		ai:           ai,
		users:        users,
		hub:          hub,
		readingLimit: readingLimit,
		logger:       logger,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		api.POST("/readings", s.ingestReading)
		api.POST("/users", s.registerUser)
		api.GET("/patients", s.listPatients)

		patients := api.Group("/patients/:id")
		{
			patients.GET("/readings", s.patientReadings)
			patients.GET("/stats", s.patientStats)
			patients.GET("/alerts", s.patientAlerts)
			patients.POST("/alerts/read", s.markAlertsRead)
			patients.POST("/sos", s.triggerSOS)
			patients.POST("/voice", s.voiceCommand)
			patients.GET("/guardians", s.listGuardians)
			patients.POST("/guardians", s.addGuardian)
			patients.GET("/stream", s.streamEvents)
		}

		api.DELETE("/guardians/:id", s.removeGuardian)

		api.POST("/assignments", s.assignPatient)
		api.DELETE("/assignments/:patientID", s.unassignPatient)
		api.GET("/assignments", s.listAssignments)

		api.POST("/chat", s.chat)
		api.POST("/symptoms/analyze", s.analyzeSymptoms)
	}

	return r
}
