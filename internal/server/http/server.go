// Package httpserver exposes the lifecycle engine over a JSON HTTP API.
// It is one of the engine's external collaborators: identity arrives via the
// Auth middleware and every operation goes through the engine's public
// surface, never the stores directly.
package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/aryan-madhavi/healthshare/internal/errs"
	"github.com/aryan-madhavi/healthshare/internal/model"
	"github.com/aryan-madhavi/healthshare/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	engine    service.GrantService
	emergency service.EmergencyService
	records   service.RecordService
}

// New constructs the HTTP server with injected services.
func New(engine service.GrantService, emergency service.EmergencyService, records service.RecordService) *Server {
	return &Server{engine: engine, emergency: emergency, records: records}
}

// Router builds the gin engine with auth, logging and recovery middleware.
func (s *Server) Router(log *zap.Logger, signKey []byte) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(log), Logging(log))

	api := r.Group("/api/v1", Auth(signKey))
	{
		api.POST("/records", s.createRecord)
		api.GET("/records", s.listRecords)
		api.GET("/records/:id", s.getRecord)
		api.POST("/records/:id/revoke", s.revokeRecord)
		api.POST("/records/:id/revoke-shares", s.revokeAll)
		api.GET("/records/:id/audit", s.auditByRecord)

		api.POST("/grants", s.issueGrant)
		api.POST("/grants/:id/access", s.recordAccess)
		api.POST("/grants/:id/revoke", s.revokeGrant)
		api.GET("/shares", s.listActiveShares)
		api.GET("/received", s.listReceivedGrants)

		api.POST("/emergency", s.issueEmergency)
		api.POST("/emergency/:id/activate", s.activateEmergency)

		api.GET("/actors/:id/audit", s.auditByActor)
	}
	return r
}

// writeError maps engine sentinels onto HTTP status codes.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, errs.ErrGrantNotFound), errors.Is(err, errs.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errs.ErrNotOwner), errors.Is(err, errs.ErrRoleMismatch), errors.Is(err, errs.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, errs.ErrGrantNotActive), errors.Is(err, errs.ErrRecordRevoked),
		errors.Is(err, errs.ErrAccessExhausted), errors.Is(err, errs.ErrAlreadyActivated):
		status = http.StatusConflict
	case errors.Is(err, errs.ErrInvalidScope), strings.HasPrefix(err.Error(), "validation:"):
		status = http.StatusBadRequest
	default:
		// storage fault: fatal to the operation, surfaced, never retried here
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.FromString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return uuid.Nil, false
	}
	return id, true
}

// --- Records ---

func (s *Server) createRecord(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	var req struct {
		Type  string `json:"record_type" binding:"required"`
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rec, err := s.records.Register(c.Request.Context(), actor, model.RecordType(req.Type), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordDTO(rec))
}

func (s *Server) listRecords(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	recs, err := s.records.ListByOwner(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]recordDTO, 0, len(recs))
	for i := range recs {
		out = append(out, toRecordDTO(&recs[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRecord(c *gin.Context) {
	actor, role, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	rec, err := s.records.Get(c.Request.Context(), actor, role, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordDTO(rec))
}

func (s *Server) revokeRecord(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := s.records.RevokeRecord(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked_grants": n})
}

// --- Grants ---

func (s *Server) issueGrant(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	var req struct {
		RecordID       uuid.UUID `json:"record_id" binding:"required"`
		RecipientID    uuid.UUID `json:"recipient_id" binding:"required"`
		RecipientRole  string    `json:"recipient_role" binding:"required"`
		Scope          string    `json:"scope" binding:"required"`
		TTL            string    `json:"ttl" binding:"required"`
		MaxAccessCount *int      `json:"max_access_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ttl, err := time.ParseDuration(req.TTL)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
		return
	}
	g, err := s.engine.IssueGrant(c.Request.Context(), actor, req.RecordID, req.RecipientID,
		model.Role(req.RecipientRole), model.Scope(req.Scope), ttl, req.MaxAccessCount)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toGrantDTO(g))
}

func (s *Server) recordAccess(c *gin.Context) {
	actor, role, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := s.engine.RecordAccess(c.Request.Context(), id, actor, role, model.AuditAction(req.Action))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAccessResultDTO(res))
}

func (s *Server) revokeGrant(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := s.engine.Revoke(c.Request.Context(), actor, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) revokeAll(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	n, err := s.engine.RevokeAll(c.Request.Context(), actor, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"revoked": n})
}

func (s *Server) listActiveShares(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	gs, err := s.engine.ListActiveShares(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGrantDTOs(gs))
}

func (s *Server) listReceivedGrants(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	gs, err := s.engine.ListReceivedGrants(c.Request.Context(), actor)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGrantDTOs(gs))
}

// --- Emergency ---

func (s *Server) issueEmergency(c *gin.Context) {
	actor, _, _ := actorFromCtx(c)
	var req struct {
		RecordID uuid.UUID `json:"record_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, tok, err := s.emergency.IssueEmergencyGrant(c.Request.Context(), actor, req.RecordID)
	if err != nil {
		writeError(c, err)
		return
	}
	// The activation token is returned exactly once; only its hash is stored.
	c.JSON(http.StatusCreated, gin.H{
		"grant":            toGrantDTO(g),
		"activation_token": tok,
	})
}

func (s *Server) activateEmergency(c *gin.Context) {
	actor, role, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	g, err := s.emergency.ActivateEmergencyGrant(c.Request.Context(), id, req.Token, actor, role)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toGrantDTO(g))
}

// --- Audit ---

func (s *Server) auditByRecord(c *gin.Context) {
	actor, role, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	es, err := s.engine.AuditByRecord(c.Request.Context(), actor, role, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuditDTOs(es))
}

func (s *Server) auditByActor(c *gin.Context) {
	actor, role, _ := actorFromCtx(c)
	id, ok := pathID(c)
	if !ok {
		return
	}
	es, err := s.engine.AuditByActor(c.Request.Context(), actor, role, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toAuditDTOs(es))
}
