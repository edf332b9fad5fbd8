package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/captionforge/captionforge/internal/database"
	"github.com/captionforge/captionforge/internal/generate"
	"github.com/captionforge/captionforge/internal/jobstore"
	"github.com/captionforge/captionforge/internal/logging"
	"github.com/captionforge/captionforge/internal/media"
	"github.com/captionforge/captionforge/internal/middleware"
	"github.com/captionforge/captionforge/internal/preset"
	"github.com/captionforge/captionforge/internal/subtitle"
	"github.com/captionforge/captionforge/pkg/models"
)

// API wires the HTTP surface to the pipeline service and stores.
type API struct {
	repo      *database.Repository
	store     jobstore.Store
	service   *generate.Service
	catalog   *preset.Catalog
	toolchain media.Toolchain
	log       *logging.Logger
}

func setupRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(api.log))

	limiter := middleware.NewRateLimiter(20, 40)
	go limiter.Cleanup()

	router.GET("/health", api.healthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(limiter.Middleware())
	{
		v1.POST("/videos", api.registerVideo)
		v1.GET("/videos/:id", api.getVideo)
		v1.POST("/videos/:id/subtitles", api.createGeneration)

		v1.GET("/generations/:id", api.getGeneration)
		v1.GET("/generations/:id/export", api.exportSubtitles)
		v1.PUT("/generations/:id/style", api.applyStyleAll)
		v1.PUT("/generations/:id/position", api.setPositionAll)
		v1.PUT("/generations/:id/subtitles/:subtitleId/style", api.applyStyle)
		v1.PUT("/generations/:id/subtitles/:subtitleId/position", api.setPosition)
		v1.POST("/generations/:id/render", api.createRender)

		v1.GET("/presets/styles", api.listStyles)
		v1.GET("/presets/positions", api.listPositions)
	}

	return router
}

func (api *API) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := api.repo.Health(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

type registerVideoRequest struct {
	Title string `json:"title"`
	Path  string `json:"path" binding:"required"`
}

// registerVideo probes a video on local storage and records it in the
// catalog.
func (api *API) registerVideo(c *gin.Context) {
	var req registerVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	probe, err := api.toolchain.Probe(c.Request.Context(), req.Path)
	if err != nil {
		if errors.Is(err, models.ErrMediaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	video := &models.VideoAsset{
		ID:        uuid.New().String(),
		Title:     req.Title,
		Path:      req.Path,
		Duration:  probe.Duration,
		Width:     probe.Width,
		Height:    probe.Height,
		FrameRate: probe.FrameRate,
	}
	if err := api.repo.CreateVideo(c.Request.Context(), video); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, video)
}

func (api *API) getVideo(c *gin.Context) {
	video, err := api.repo.GetVideo(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, video)
}

type createGenerationRequest struct {
	Language string `json:"language"`
	Style    string `json:"style"`
	Position string `json:"position"`
}

func (api *API) createGeneration(c *gin.Context) {
	// An empty body is allowed; every field has a default.
	var req createGenerationRequest
	_ = c.ShouldBindJSON(&req)

	job, err := api.service.Start(c.Request.Context(), c.Param("id"), req.Language, req.Style, req.Position)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, job)
}

// getGeneration returns the current job snapshot, served from the
// ephemeral store or, after expiry, the durable mirror.
func (api *API) getGeneration(c *gin.Context) {
	job, err := api.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

// exportSubtitles serializes the generation's subtitles in the requested
// format.
func (api *API) exportSubtitles(c *gin.Context) {
	job, err := api.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}

	format := c.DefaultQuery("format", subtitle.FormatSRT)
	content, err := subtitle.Export(job.Subtitles, format, subtitle.ExportOptions{})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, exportContentType(format), []byte(content))
}

func exportContentType(format string) string {
	switch format {
	case subtitle.FormatVTT:
		return "text/vtt; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// editGeneration runs an edit against the stored job, translating store
// and lookup errors to HTTP statuses.
func (api *API) editGeneration(c *gin.Context, edit func(*models.GenerationJob) error) {
	var editErr error
	job, err := api.store.Update(c.Request.Context(), c.Param("id"), func(j *models.GenerationJob) {
		editErr = edit(j)
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if editErr != nil {
		if errors.Is(editErr, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": editErr.Error()})
		return
	}

	c.JSON(http.StatusOK, job)
}

func (api *API) applyStyle(c *gin.Context) {
	var patch models.StylePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtitleID := c.Param("subtitleId")
	api.editGeneration(c, func(j *models.GenerationJob) error {
		return subtitle.ApplyStyle(j, subtitleID, patch)
	})
}

func (api *API) applyStyleAll(c *gin.Context) {
	var patch models.StylePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	api.editGeneration(c, func(j *models.GenerationJob) error {
		subtitle.ApplyStyleAll(j, patch)
		return nil
	})
}

type positionRequest struct {
	X *float64 `json:"x" binding:"required"`
	Y *float64 `json:"y" binding:"required"`
}

func (api *API) setPosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	subtitleID := c.Param("subtitleId")
	api.editGeneration(c, func(j *models.GenerationJob) error {
		return subtitle.SetPosition(j, subtitleID, models.Position{X: *req.X, Y: *req.Y})
	})
}

func (api *API) setPositionAll(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	api.editGeneration(c, func(j *models.GenerationJob) error {
		subtitle.SetPositionAll(j, models.Position{X: *req.X, Y: *req.Y})
		return nil
	})
}

func (api *API) createRender(c *gin.Context) {
	job, err := api.service.StartRender(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func (api *API) listStyles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": preset.DefaultStyle,
		"styles":  api.catalog.Styles(),
	})
}

func (api *API) listPositions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default":   preset.DefaultPosition,
		"positions": api.catalog.Positions(),
	})
}
