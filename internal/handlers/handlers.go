package handlers

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nabilhasan01/CSE499A/internal/logger"
	"github.com/nabilhasan01/CSE499A/internal/model"
)

// LeafPredictor classifies a decoded leaf image.
type LeafPredictor interface {
	Classify(img image.Image) (model.ClassificationResult, error)
}

// CropPredictor recommends a crop for a soil reading.
type CropPredictor interface {
	Recommend(r model.SensorReading) (model.CropRecommendation, error)
}

var ErrMissingField = errors.New("missing field")

type Handler struct {
	leaf LeafPredictor
	crop CropPredictor
	info model.Info
}

func NewHandler(leaf LeafPredictor, crop CropPredictor, info model.Info) *Handler {
	return &Handler{
		leaf: leaf,
		crop: crop,
		info: info,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handler) ModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}

// LeafPredict handles POST /leaf-predict/ with the image in form field "file".
func (h *Handler) LeafPredict(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("read upload: %w", err))
		return
	}

	file, err := fh.Open()
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("open upload: %w", err))
		return
	}
	defer file.Close()

	logger.Debugf("Received file: %s, size: %d bytes", fh.Filename, fh.Size)

	img, format, err := image.Decode(file)
	if err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("decode image: %w", err))
		return
	}

	logger.Debugf("Image format: %s, dimensions: %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	result, err := h.leaf.Classify(img)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// soilRequest uses pointers so an absent field can be told apart from 0.
type soilRequest struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	PH          *float64 `json:"ph"`
}

func (r soilRequest) reading() (model.SensorReading, error) {
	switch {
	case r.Temperature == nil:
		return model.SensorReading{}, fmt.Errorf("%w: temperature", ErrMissingField)
	case r.Humidity == nil:
		return model.SensorReading{}, fmt.Errorf("%w: humidity", ErrMissingField)
	case r.PH == nil:
		return model.SensorReading{}, fmt.Errorf("%w: ph", ErrMissingField)
	}
	return model.SensorReading{Temperature: *r.Temperature, Humidity: *r.Humidity, PH: *r.PH}, nil
}

// SoilPredict handles POST /soil-predict/ with a JSON soil reading.
func (h *Handler) SoilPredict(c *gin.Context) {
	var req soilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusInternalServerError, fmt.Errorf("decode body: %w", err))
		return
	}

	reading, err := req.reading()
	if err != nil {
		fail(c, http.StatusUnprocessableEntity, err)
		return
	}

	result, err := h.crop.Recommend(reading)
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func fail(c *gin.Context, status int, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.AbortWithStatusJSON(status, model.ErrorResponse{Error: err.Error()})
}
