package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pulcova-api/internal/models"
	"github.com/pulcova-api/internal/service"
	"github.com/rs/zerolog"
)

// CatalogHandler serves the public listing and detail pages
type CatalogHandler struct {
	catalog service.CatalogService
	log     zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalog,
		log:     log.With().Str("handler", "catalog").Logger(),
	}
}

// List handles GET /v1/{catalog}
func (h *CatalogHandler) List(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params models.ListParams
		// Query binding only fails on malformed encodings; bad values are ignored downstream
		_ = c.ShouldBindQuery(&params)

		page, err := h.catalog.List(c.Request.Context(), kind, params)
		if err != nil {
			h.respondError(c, kind, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

// Detail handles GET /v1/{catalog}/:slug
func (h *CatalogHandler) Detail(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := h.catalog.Detail(c.Request.Context(), kind, c.Param("slug"))
		if err != nil {
			h.respondError(c, kind, err)
			return
		}
		c.JSON(http.StatusOK, page)
	}
}

func (h *CatalogHandler) respondError(c *gin.Context, kind models.Kind, err error) {
	if errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.Error().Err(err).Str("kind", string(kind)).Str("path", c.Request.URL.Path).Msg("Failed to load catalog page")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load content"})
}
