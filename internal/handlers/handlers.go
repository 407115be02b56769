package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/forgery-check/internal/analysis"
	"github.com/example/forgery-check/internal/events"
	"github.com/example/forgery-check/internal/preview"
	"github.com/example/forgery-check/internal/render"
	"github.com/example/forgery-check/internal/settings"
	"github.com/example/forgery-check/internal/workflow"
)

// MaxUploadSize is the default limit for uploaded images.
const MaxUploadSize = 10 << 20

// multipartOverhead leaves room for boundaries and part headers on top of
// the image itself.
const multipartOverhead = 64 << 10

// Dependencies are the collaborators the routes drive.
type Dependencies struct {
	Controller    *workflow.Controller
	Previews      *preview.Registry
	Endpoints     *settings.Endpoints
	Hub           *events.Hub
	MaxUploadSize int64
	Logger        *zap.Logger
}

type routes struct {
	Dependencies
}

type endpointPayload struct {
	Endpoint string `json:"endpoint"`
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	if deps.MaxUploadSize <= 0 {
		deps.MaxUploadSize = MaxUploadSize
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	deps.Logger = deps.Logger.Named("handlers")
	r := &routes{Dependencies: deps}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/state", r.state)
	router.POST("/image", r.selectImage)
	router.DELETE("/image", r.clearImage)
	router.GET(preview.PathPrefix+":id", r.preview)
	router.POST("/analyze", r.analyze)
	router.GET("/results/:asset", r.download)
	router.GET("/settings/endpoint", r.getEndpoint)
	router.PUT("/settings/endpoint", r.putEndpoint)
	if deps.Hub != nil {
		router.GET("/events", r.streamEvents)
	}
}

func (r *routes) state(c *gin.Context) {
	c.JSON(http.StatusOK, render.Render(r.Controller.Snapshot()))
}

func (r *routes) selectImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.MaxUploadSize+multipartOverhead)

	file, err := c.FormFile(analysis.FormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	if file.Size > r.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image exceeds upload limit"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unable to open image"})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported file type %s", detected.String())})
		return
	}

	img := analysis.Image{Name: file.Filename, ContentType: detected.String(), Data: data}
	snap := r.Controller.SelectImage(img, r.Previews.Create(img))
	c.JSON(http.StatusOK, render.Render(snap))
}

func (r *routes) clearImage(c *gin.Context) {
	c.JSON(http.StatusOK, render.Render(r.Controller.ClearImage()))
}

func (r *routes) preview(c *gin.Context) {
	img, ok := r.Previews.Open(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "preview not found"})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, img.ContentType, img.Data)
}

func (r *routes) analyze(c *gin.Context) {
	// The remote call is not cancelled if the page goes away.
	snap, err := r.Controller.Analyze(context.WithoutCancel(c.Request.Context()))
	if err == nil {
		c.JSON(http.StatusOK, render.Render(snap))
		return
	}

	status := http.StatusConflict
	body := gin.H{"error": err.Error(), "view": render.Render(snap)}
	var analysisErr *workflow.AnalysisError
	switch {
	case errors.Is(err, workflow.ErrEndpointNotConfigured):
		status = http.StatusPreconditionFailed
		body["kind"] = workflow.KindConfiguration
	case errors.As(err, &analysisErr):
		status = http.StatusBadGateway
		body["kind"] = analysisErr.Kind
	}
	c.JSON(status, body)
}

func (r *routes) download(c *gin.Context) {
	d, dataURL, ok := render.Asset(r.Controller.Snapshot(), c.Param("asset"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		return
	}
	mime, data, err := render.DecodeDataURL(dataURL)
	if err != nil {
		r.Logger.Warn("undecodable result image", zap.String("asset", d.Asset), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "result image is not valid base64"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, d.Filename))
	c.Data(http.StatusOK, mime, data)
}

func (r *routes) getEndpoint(c *gin.Context) {
	endpoint, err := r.Endpoints.Endpoint(c.Request.Context())
	if err != nil {
		r.Logger.Error("failed to read endpoint", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read endpoint"})
		return
	}
	c.JSON(http.StatusOK, endpointPayload{Endpoint: endpoint})
}

func (r *routes) putEndpoint(c *gin.Context) {
	var payload endpointPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	saved, err := r.Endpoints.Save(c.Request.Context(), payload.Endpoint)
	if errors.Is(err, settings.ErrInvalidEndpoint) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		r.Logger.Error("failed to save endpoint", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save endpoint"})
		return
	}
	r.Logger.Info("endpoint updated", zap.Bool("cleared", saved == ""))
	c.JSON(http.StatusOK, endpointPayload{Endpoint: saved})
}
