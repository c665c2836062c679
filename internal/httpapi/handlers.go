package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitalwatch/vitalwatch/internal/apperrors"
	"github.com/vitalwatch/vitalwatch/internal/domain"
	"github.com/vitalwatch/vitalwatch/internal/services"
	"github.com/vitalwatch/vitalwatch/internal/vitals"
	"github.com/vitalwatch/vitalwatch/internal/voice"
)

const defaultAlertLimit = 50

// callerID reads the identity the auth gateway forwarded
func callerID(c *gin.Context) (uint, error) {
	raw := c.GetHeader("X-User-ID")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("missing or invalid X-User-ID header")
	}
	return uint(id), nil
}

func patientParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, apperrors.NewValidationError("invalid patient id")
	}
	return uint(id), nil
}

func limitQuery(c *gin.Context, fallback int) int {
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

type readingRequest struct {
	PatientID   uint     `json:"patient_id" binding:"required"`
	BPM         *float64 `json:"bpm"`
	RRInterval  *float64 `json:"rr_interval"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
	Latitude    *float64 `json:"lat"`
	Longitude   *float64 `json:"lng"`
	SensorFault bool     `json:"sensor_fault"`
}

func (s *Server) ingestReading(c *gin.Context) {
	var req readingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("invalid reading payload"))
		return
	}

	reading := &domain.Reading{
		PatientID:   req.PatientID,
		BPM:         req.BPM,
		RRInterval:  req.RRInterval,
		SpO2:        req.SpO2,
		Temperature: req.Temperature,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		SensorFault: req.SensorFault,
	}

	result, err := s.monitor.Ingest(c.Request.Context(), reading)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type registerUserRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

// registerUser resolves the gateway-authenticated caller to a local user
// row, creating it on first sight. Idempotent per email.
func (s *Server) registerUser(c *gin.Context) {
	var req registerUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("email, name and role are required"))
		return
	}
	if req.Role != domain.RolePatient && req.Role != domain.RoleCaretaker {
		respondError(c, apperrors.NewValidationError("role must be Patient or Caretaker"))
		return
	}

	user, err := s.users.GetOrCreate(c.Request.Context(), req.Email, req.Name, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) listPatients(c *gin.Context) {
	patients, err := s.users.ListPatients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patients": patients})
}

func (s *Server) patientReadings(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	readings, err := s.monitor.RecentReadings(c.Request.Context(), patientID, limitQuery(c, s.readingLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"readings": readings})
}

func (s *Server) patientStats(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":  s.monitor.Stats(patientID),
		"status": latestStatus(s.monitor, patientID),
	})
}

// latestStatus derives the discrete status from the newest windowed heart
// rate; patients without one read as Normal
func latestStatus(monitor *services.MonitorService, patientID uint) vitals.HealthStatus {
	snapshot := monitor.Snapshot(patientID)
	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].BPM != nil {
			return vitals.Status(*snapshot[i].BPM)
		}
	}
	return vitals.StatusNormal
}

func (s *Server) patientAlerts(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	alerts, err := s.alerts.ListAlerts(c.Request.Context(), patientID, limitQuery(c, defaultAlertLimit))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) markAlertsRead(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := s.alerts.MarkRead(c.Request.Context(), patientID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "acknowledged"})
}

func (s *Server) triggerSOS(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := s.alerts.TriggerSOS(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type voiceRequest struct {
	Transcript string `json:"transcript" binding:"required"`
}

// voiceCommand resolves a recognized utterance and acts on it: an emergency
// phrase triggers the same SOS path as the button.
func (s *Server) voiceCommand(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req voiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("transcript is required"))
		return
	}

	command := voice.Resolve(req.Transcript)
	if command != voice.CommandEmergencyAlert {
		c.JSON(http.StatusOK, gin.H{"command": command})
		return
	}

	result, err := s.alerts.TriggerSOS(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"command": command, "sos": result})
}

type guardianRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

func (s *Server) addGuardian(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req guardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("guardian name and email are required"))
		return
	}

	guardian, err := s.guardians.Add(c.Request.Context(), patientID, req.Name, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, guardian)
}

func (s *Server) listGuardians(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	guardians, err := s.guardians.List(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"guardians": guardians})
}

func (s *Server) removeGuardian(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		respondError(c, apperrors.NewValidationError("invalid guardian id"))
		return
	}

	if err := s.guardians.Remove(c.Request.Context(), uint(id)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}

type assignmentRequest struct {
	PatientID uint `json:"patient_id" binding:"required"`
}

func (s *Server) assignPatient(c *gin.Context) {
	caretakerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("patient_id is required"))
		return
	}

	assignment, err := s.assignments.Assign(c.Request.Context(), caretakerID, req.PatientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (s *Server) unassignPatient(c *gin.Context) {
	caretakerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	patientID, err := strconv.ParseUint(c.Param("patientID"), 10, 32)
	if err != nil || patientID == 0 {
		respondError(c, apperrors.NewValidationError("invalid patient id"))
		return
	}

	if err := s.assignments.Unassign(c.Request.Context(), caretakerID, uint(patientID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unassigned"})
}

// assignedPatient is one row of the caretaker dashboard listing
type assignedPatient struct {
	PatientID    uint                `json:"patient_id"`
	Status       vitals.HealthStatus `json:"status"`
	Stats        vitals.Stats        `json:"stats"`
	UnreadAlerts int                 `json:"unread_alerts"`
}

func (s *Server) listAssignments(c *gin.Context) {
	caretakerID, err := callerID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	assignments, err := s.assignments.AssignedPatients(c.Request.Context(), caretakerID)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]assignedPatient, 0, len(assignments))
	for _, a := range assignments {
		row := assignedPatient{
			PatientID: a.PatientID,
			Status:    latestStatus(s.monitor, a.PatientID),
			Stats:     s.monitor.Stats(a.PatientID),
		}
		// Badge only; a failed count must not take the listing down.
		if unread, err := s.alerts.UnreadAlerts(c.Request.Context(), a.PatientID); err == nil {
			row.UnreadAlerts = len(unread)
		} else {
			s.logger.Warn("Failed to count unread alerts",
				"patient_id", a.PatientID, "error", err)
		}
		rows = append(rows, row)
	}
	c.JSON(http.StatusOK, gin.H{"assignments": rows})
}

type chatRequest struct {
	Message  string `json:"message" binding:"required"`
	Language string `json:"language"`
}

func (s *Server) chat(c *gin.Context) {
	if s.ai == nil {
		respondError(c, apperrors.NewUnavailableError(nil, "AI provider"))
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("message is required"))
		return
	}

	reply, err := s.ai.ChatWithDoctor(c.Request.Context(), req.Message, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

type symptomRequest struct {
	Symptoms string `json:"symptoms" binding:"required"`
	Language string `json:"language"`
}

func (s *Server) analyzeSymptoms(c *gin.Context) {
	if s.ai == nil {
		respondError(c, apperrors.NewUnavailableError(nil, "AI provider"))
		return
	}

	var req symptomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.NewValidationError("symptoms are required"))
		return
	}

	analysis, err := s.ai.AnalyzeSymptoms(c.Request.Context(), req.Symptoms, req.Language)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// streamEvents pushes readings and alerts for one patient over SSE until
// the client disconnects
func (s *Server) streamEvents(c *gin.Context) {
	patientID, err := patientParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	if s.hub == nil {
		respondError(c, apperrors.NewUnavailableError(nil, "event stream"))
		return
	}

	subscription, err := s.hub.Subscribe(c.Request.Context(), patientID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer subscription.Close()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-subscription.Events():
			if !ok {
				return false
			}
			c.SSEvent(event.Kind, event)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
