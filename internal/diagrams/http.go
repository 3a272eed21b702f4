package diagrams

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
	"github.com/flowdraw-ai/flowdraw-backend/internal/generation"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects/:projectID/diagrams", h.create)
	rg.GET("/projects/:projectID/diagrams", h.list)
	rg.GET("/diagrams/:id", h.get)
	rg.PUT("/diagrams/:id", h.save)
	rg.DELETE("/diagrams/:id", h.remove)
	rg.GET("/diagrams/:id/history", h.history)
	rg.GET("/diagrams/:id/history/:snapshotID", h.restore)
	rg.POST("/ai/generate", h.generate)
	rg.POST("/diagrams/:id/ai/refine", h.refine)
}

type createReq struct {
	Title  string `json:"title"`
	Source string `json:"source"`
}

func (h *Handler) create(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	d, err := h.svc.Create(c.Request.Context(), uid, CreateInput{
		ProjectID: c.Param("projectID"),
		Title:     req.Title,
		Source:    req.Source,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create diagram"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": d})
}

func (h *Handler) list(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	ds, err := h.svc.ListByProject(c.Request.Context(), uid, c.Param("projectID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not list diagrams"})
		return
	}
	if ds == nil {
		ds = []Diagram{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": ds})
}

func (h *Handler) get(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	d, err := h.svc.Get(c.Request.Context(), uid, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load diagram"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": d})
}

type saveReq struct {
	Title     string `json:"title"`
	Source    string `json:"source"`
	Layout    string `json:"layout"`
	Theme     string `json:"theme"`
	Direction string `json:"direction"`
	Prompt    string `json:"prompt"`
}

func (h *Handler) save(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req saveReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	res, err := h.svc.Save(c.Request.Context(), uid, c.Param("id"), SaveInput{
		Title:     req.Title,
		Source:    req.Source,
		Layout:    req.Layout,
		Theme:     req.Theme,
		Direction: req.Direction,
		Prompt:    req.Prompt,
	})
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not save diagram"})
		return
	}

	resp := gin.H{"ok": true, "data": res.Diagram}
	if res.HistoryWarning != "" {
		resp["warning"] = res.HistoryWarning
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) remove(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	err := h.svc.Delete(c.Request.Context(), uid, c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not delete diagram"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type snapshotView struct {
	Snapshot
	When string `json:"when"`
}

func (h *Handler) history(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	snaps, err := h.svc.History(c.Request.Context(), uid, c.Param("id"), limit)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load history"})
		return
	}

	now := time.Now()
	views := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, snapshotView{Snapshot: s, When: RelativeLabel(s.CreatedAt, now)})
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": views})
}

func (h *Handler) restore(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	snap, err := h.svc.Restore(c.Request.Context(), uid, c.Param("id"), c.Param("snapshotID"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "snapshot not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not restore snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": snap})
}

type generateReq struct {
	Description string `json:"description" binding:"required"`
}

func (h *Handler) generate(c *gin.Context) {
	if _, ok := auth.UserDBID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req generateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "description is required"})
		return
	}

	source, err := h.svc.Generate(c.Request.Context(), req.Description)
	if errors.Is(err, ErrGenerationDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "AI assistance is not configured"})
		return
	}
	if errors.Is(err, generation.ErrBadFormat) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "the assistant did not return a diagram, try rephrasing"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "diagram generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{"source": source}})
}

type refineReq struct {
	Instruction string `json:"instruction" binding:"required"`
}

func (h *Handler) refine(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req refineReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "instruction is required"})
		return
	}

	res, err := h.svc.Refine(c.Request.Context(), uid, c.Param("id"), req.Instruction)
	if errors.Is(err, ErrGenerationDisabled) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": "AI assistance is not configured"})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if errors.Is(err, generation.ErrBadFormat) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": "the assistant did not return a diagram, try rephrasing"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "diagram refinement failed"})
		return
	}

	resp := gin.H{"ok": true, "data": res.Diagram}
	if res.HistoryWarning != "" {
		resp["warning"] = res.HistoryWarning
	}
	c.JSON(http.StatusOK, resp)
}
