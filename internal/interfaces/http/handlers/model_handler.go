package handlers

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fraudguard/fraudguard/internal/application/dto"
	"github.com/fraudguard/fraudguard/internal/application/service"
	"github.com/fraudguard/fraudguard/pkg/errors"
)

// ModelHandler handles model metrics and retraining.
type ModelHandler struct {
	scoring  service.ScoringAppService
	training service.TrainingAppService
}

// NewModelHandler creates a new ModelHandler.
func NewModelHandler(scoring service.ScoringAppService, training service.TrainingAppService) *ModelHandler {
	return &ModelHandler{scoring: scoring, training: training}
}

// Metrics reports the holdout evaluation of the serving ensemble.
func (h *ModelHandler) Metrics(c *gin.Context) {
	result, err := h.scoring.ModelMetrics(c.Request.Context())
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

// Retrain accepts a training dataset as a multipart file upload or a raw
// request body and runs a full retraining pass. The dataset format is taken
// from the uploaded file's extension, or from the Content-Type for raw
// bodies.
func (h *ModelHandler) Retrain(c *gin.Context) {
	reader, format, cleanup, err := h.datasetReader(c)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	defer cleanup()

	result, err := h.training.Retrain(c.Request.Context(), format, reader)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, result)
}

func (h *ModelHandler) datasetReader(c *gin.Context) (io.Reader, string, func(), error) {
	if file, err := c.FormFile("file"); err == nil {
		ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(file.Filename)), ".")
		if ext != "csv" && ext != "json" {
			return nil, "", nil, errors.ErrInvalidInput.
				WithMessage("unsupported dataset file extension: %q", ext)
		}
		f, err := file.Open()
		if err != nil {
			return nil, "", nil, errors.ErrInvalidInput.WithError(err)
		}
		return f, ext, func() { f.Close() }, nil
	}

	contentType := c.ContentType()
	switch {
	case strings.Contains(contentType, "json"):
		return c.Request.Body, "json", func() {}, nil
	case strings.Contains(contentType, "csv"):
		return c.Request.Body, "csv", func() {}, nil
	default:
		return nil, "", nil, errors.ErrInvalidInput.
			WithMessage("unsupported content type: %q", contentType)
	}
}
