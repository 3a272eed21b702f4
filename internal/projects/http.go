package projects

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
)

type Handler struct {
	repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{repo: repo}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/projects", h.create)
	rg.GET("/projects", h.list)
	rg.GET("/projects/:projectID", h.get)
	rg.PUT("/projects/:projectID", h.rename)
	rg.DELETE("/projects/:projectID", h.remove)
}

type projectReq struct {
	Name string `json:"name" binding:"required"`
}

func (h *Handler) create(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name is required"})
		return
	}

	p, err := h.repo.Create(c.Request.Context(), uid, req.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not create project"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": p})
}

func (h *Handler) list(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	ps, err := h.repo.List(c.Request.Context(), uid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not list projects"})
		return
	}
	if ps == nil {
		ps = []Project{}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": ps})
}

func (h *Handler) get(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	p, err := h.repo.Get(c.Request.Context(), uid, c.Param("projectID"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": p})
}

func (h *Handler) rename(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	var req projectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "name is required"})
		return
	}

	err := h.repo.Rename(c.Request.Context(), uid, c.Param("projectID"), req.Name)
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not rename project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) remove(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	err := h.repo.SoftDelete(c.Request.Context(), uid, c.Param("projectID"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not delete project"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
