package preview

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
	"github.com/flowdraw-ai/flowdraw-backend/internal/cache"
	"github.com/flowdraw-ai/flowdraw-backend/internal/diagrams"
	"github.com/flowdraw-ai/flowdraw-backend/internal/export"
	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
)

type Handler struct {
	mgr        *Manager
	svc        *diagrams.Service
	enc        *export.Encoder
	thumbs     *cache.ThumbCache
	thumbQueue *render.Queue
	compiler   render.Compiler
	thumbSeq   atomic.Uint64
}

func NewHandler(mgr *Manager, svc *diagrams.Service, enc *export.Encoder, thumbs *cache.ThumbCache, compiler render.Compiler) *Handler {
	return &Handler{
		mgr:        mgr,
		svc:        svc,
		enc:        enc,
		thumbs:     thumbs,
		thumbQueue: render.NewQueue(),
		compiler:   compiler,
	}
}

func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/diagrams/:id/preview", h.get)
	rg.PUT("/diagrams/:id/preview/source", h.setSource)
	rg.PUT("/diagrams/:id/preview/controls", h.setControls)
	rg.POST("/diagrams/:id/preview/zoom", h.zoom)
	rg.DELETE("/diagrams/:id/preview", h.drop)
	rg.GET("/diagrams/:id/export/:format", h.download)
	rg.GET("/diagrams/:id/thumbnail", h.thumbnail)
}

// session loads or creates the live session for the request's diagram,
// seeding a fresh one from the stored document.
func (h *Handler) session(c *gin.Context) (*render.Session, bool) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return nil, false
	}

	id := c.Param("id")
	s, created := h.mgr.Session(uid, id)
	if !created {
		return s, true
	}

	d, err := h.svc.Get(c.Request.Context(), uid, id)
	if errors.Is(err, diagrams.ErrNotFound) {
		h.mgr.Drop(uid, id)
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return nil, false
	}
	if err != nil {
		h.mgr.Drop(uid, id)
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load diagram"})
		return nil, false
	}

	s.Load(d.Source, render.ParseLayout(d.Layout), render.ParseTheme(d.Theme), render.ParseDirection(d.Direction))
	return s, true
}

func (h *Handler) get(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "data": gin.H{
		"state": s.State().String(),
		"svg":   s.SVG(),
		"error": s.Err(),
	}})
}

type sourceReq struct {
	Source string `json:"source"`
}

func (h *Handler) setSource(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req sourceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	s.SetSource(req.Source)
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "data": gin.H{"state": s.State().String()}})
}

type controlsReq struct {
	Layout    string `json:"layout"`
	Theme     string `json:"theme"`
	Direction string `json:"direction"`
}

func (h *Handler) setControls(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req controlsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid request body"})
		return
	}

	if req.Layout != "" {
		s.SetLayout(render.ParseLayout(req.Layout))
	}
	if req.Theme != "" {
		s.SetTheme(render.ParseTheme(req.Theme))
	}
	if req.Direction != "" {
		s.SetDirection(render.ParseDirection(req.Direction))
	}
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "data": gin.H{"state": s.State().String()}})
}

type zoomReq struct {
	Action string `json:"action" binding:"required"`
}

func (h *Handler) zoom(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	var req zoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "action is required"})
		return
	}

	switch req.Action {
	case "in":
		s.ZoomIn()
	case "out":
		s.ZoomOut()
	case "fit":
		s.Fit()
	case "reset":
		s.Reset()
	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown zoom action"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) drop(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	h.mgr.Drop(uid, c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) download(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	id := c.Param("id")
	d, err := h.svc.Get(c.Request.Context(), uid, id)
	if errors.Is(err, diagrams.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load diagram"})
		return
	}

	// svg and png export the rendered surface of the live session
	var svg string
	if s, ok := h.mgr.Peek(uid, id); ok {
		svg = s.SVG()
	}

	switch c.Param("format") {
	case "svg":
		payload, err := h.enc.SVGBytes(svg)
		if err != nil {
			h.exportError(c, err)
			return
		}
		h.attach(c, export.Filename(d.Title, "svg"), "image/svg+xml", payload)

	case "png":
		payload, err := h.enc.PNGBytes(c.Request.Context(), svg)
		if err != nil {
			h.exportError(c, err)
			return
		}
		h.attach(c, export.Filename(d.Title, "png"), "image/png", payload)

	case "mmd":
		payload, err := h.enc.SourceBytes(d.Source)
		if err != nil {
			h.exportError(c, err)
			return
		}
		h.attach(c, export.Filename(d.Title, "mmd"), "text/plain; charset=utf-8", payload)

	default:
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "unknown export format"})
	}
}

func (h *Handler) exportError(c *gin.Context, err error) {
	if errors.Is(err, export.ErrExport) {
		c.JSON(http.StatusConflict, gin.H{"ok": false, "error": "nothing to export yet"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "export failed"})
}

func (h *Handler) attach(c *gin.Context, filename, contentType string, payload []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}

func (h *Handler) thumbnail(c *gin.Context) {
	uid, ok := auth.UserDBID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "not authenticated"})
		return
	}

	d, err := h.svc.Get(c.Request.Context(), uid, c.Param("id"))
	if errors.Is(err, diagrams.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "diagram not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "could not load diagram"})
		return
	}

	ctx := c.Request.Context()
	if svg, hit, err := h.thumbs.Get(ctx, d.Source, d.Theme, d.Direction); err == nil && hit {
		c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
		return
	}

	// render ids must be unique per invocation, see render.Compiler
	renderID := fmt.Sprintf("thumb-%s-%d-%d", d.ID, h.thumbSeq.Add(1), time.Now().UnixMilli())
	svg, err := render.RenderThumbnail(ctx, h.thumbQueue, h.compiler, renderID,
		d.Source, render.ParseTheme(d.Theme), render.ParseDirection(d.Direction))
	if err != nil {
		// a broken diagram still gets a card, just an empty one
		c.Status(http.StatusNoContent)
		return
	}

	_ = h.thumbs.Set(ctx, d.Source, d.Theme, d.Direction, svg)
	c.Data(http.StatusOK, "image/svg+xml", []byte(svg))
}
