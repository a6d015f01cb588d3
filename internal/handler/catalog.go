package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/utils"
)

type mediaRequest struct {
	CatalogID int    `json:"catalog_id"`
	Kind      string `json:"kind"`
}

// SearchCatalog GET /api/search?q=
func (h *Handler) SearchCatalog(c *gin.Context) {
	results, err := h.Catalog.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, results)
}

// GetOrCreateMedia POST /api/media
func (h *Handler) GetOrCreateMedia(c *gin.Context) {
	var req mediaRequest
	if !bind(c, &req) {
		return
	}
	id, err := h.Catalog.GetOrCreateMedia(c.Request.Context(), req.CatalogID, req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	media, err := h.Catalog.GetMedia(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, media)
}
