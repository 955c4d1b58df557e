package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/khoido2003/natour-api/internal/middleware"
	"github.com/khoido2003/natour-api/internal/service"
	appErrors "github.com/khoido2003/natour-api/pkg/errors"
	"github.com/khoido2003/natour-api/pkg/response"
)

type tourService interface {
	List(ctx context.Context, params url.Values) (*service.TourList, error)
	Get(ctx context.Context, id string) (map[string]interface{}, error)
	Create(ctx context.Context, body []byte) (map[string]interface{}, error)
	Update(ctx context.Context, id string, body []byte) (map[string]interface{}, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, params url.Values, format string) (*service.ExportFile, error)
}

// TourHandler wires HTTP endpoints to the tour service.
type TourHandler struct {
	service tourService
}

// NewTourHandler creates a new handler.
func NewTourHandler(svc tourService) *TourHandler {
	return &TourHandler{service: svc}
}

// List godoc
// @Summary List tours
// @Description Filter with field=value or field[gte|gt|lte|lt|in]=value, sort=-price,name, fields=name,price, page and limit
// @Tags Tours
// @Produce json
// @Param sort query string false "Comma separated sort fields, '-' for descending"
// @Param fields query string false "Comma separated fields to return"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tours [get]
func (h *TourHandler) List(c *gin.Context) {
	result, err := h.service.List(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, result.Cached)
	response.List(c, "tours", result.Tours, result.Results, &result.Pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get tour
// @Tags Tours
// @Produce json
// @Param id path string true "Tour ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tours/{id} [get]
func (h *TourHandler) Get(c *gin.Context) {
	tour, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"tour": tour})
}

// Create godoc
// @Summary Create tour
// @Tags Tours
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.Tour true "Tour payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /tours [post]
func (h *TourHandler) Create(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tour payload"))
		return
	}
	tour, err := h.service.Create(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"tour": tour})
}

// Update godoc
// @Summary Update tour
// @Description Fields present in the payload overwrite the stored tour
// @Tags Tours
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Tour ID"
// @Param payload body models.Tour true "Partial tour payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tours/{id} [patch]
func (h *TourHandler) Update(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid tour payload"))
		return
	}
	tour, err := h.service.Update(c.Request.Context(), c.Param("id"), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"tour": tour})
}

// Delete godoc
// @Summary Delete tour
// @Tags Tours
// @Security BearerAuth
// @Param id path string true "Tour ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /tours/{id} [delete]
func (h *TourHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export tours
// @Description Renders the filtered listing as a CSV sheet or PDF brochure
// @Tags Tours
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /tours/export [get]
func (h *TourHandler) Export(c *gin.Context) {
	params := c.Request.URL.Query()
	format := params.Get("format")
	params.Del("format")

	file, err := h.service.Export(c.Request.Context(), params, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
