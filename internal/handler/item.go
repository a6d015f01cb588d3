package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/utils"
)

type addItemRequest struct {
	MediaID   int    `json:"media_id"`
	CatalogID int    `json:"catalog_id"`
	Kind      string `json:"kind"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type ratingRequest struct {
	Rating *int `json:"rating"`
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type priorityRequest struct {
	Priority *string `json:"priority"`
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// datesRequest 字段缺省保持不变，null 清除，数字设置
type datesRequest struct {
	StartedAt  model.DateUpdate `json:"started_at"`
	FinishedAt model.DateUpdate `json:"finished_at"`
}

// ListItems GET /api/lists/:id/items?sort=
func (h *Handler) ListItems(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	items, err := h.Items.GetItems(c.Request.Context(), id, subject(c), c.Query("sort"))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, items)
}

// AddItem POST /api/lists/:id/items，media_id 或 catalog_id + kind
func (h *Handler) AddItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if !bind(c, &req) {
		return
	}

	var (
		item *model.ListItem
		err  error
	)
	if req.MediaID > 0 {
		item, err = h.Items.AddItem(c.Request.Context(), id, subject(c), req.MediaID)
	} else {
		item, err = h.Items.AddCatalogItem(c.Request.Context(), id, subject(c), req.CatalogID, req.Kind)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, item)
}

// ExportList GET /api/lists/:id/export
func (h *Handler) ExportList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	export, err := h.Items.ExportListItems(c.Request.Context(), id, subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, export)
}

// DeleteItem DELETE /api/items/:id
func (h *Handler) DeleteItem(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Items.DeleteItem(c.Request.Context(), id, subject(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// itemUpdate 解析条目 ID 与请求体后执行更新
func itemUpdate[T any](c *gin.Context, apply func(itemID int, req *T) (*model.ListItem, error)) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req T
	if !bind(c, &req) {
		return
	}
	item, err := apply(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, item)
}

// seasonUpdate 同 itemUpdate，额外解析季号
func seasonUpdate[T any](c *gin.Context, apply func(itemID, season int, req *T) (*model.ListItem, error)) {
	season, ok := idParam(c, "season")
	if !ok {
		return
	}
	itemUpdate(c, func(itemID int, req *T) (*model.ListItem, error) {
		return apply(itemID, season, req)
	})
}

// SetStatus PUT /api/items/:id/status
func (h *Handler) SetStatus(c *gin.Context) {
	itemUpdate(c, func(id int, req *statusRequest) (*model.ListItem, error) {
		return h.Items.SetStatus(c.Request.Context(), id, subject(c), req.Status)
	})
}

// SetRating PUT /api/items/:id/rating
func (h *Handler) SetRating(c *gin.Context) {
	itemUpdate(c, func(id int, req *ratingRequest) (*model.ListItem, error) {
		return h.Items.SetRating(c.Request.Context(), id, subject(c), req.Rating)
	})
}

// SetNotes PUT /api/items/:id/notes
func (h *Handler) SetNotes(c *gin.Context) {
	itemUpdate(c, func(id int, req *notesRequest) (*model.ListItem, error) {
		return h.Items.SetNotes(c.Request.Context(), id, subject(c), req.Notes)
	})
}

// SetPriority PUT /api/items/:id/priority
func (h *Handler) SetPriority(c *gin.Context) {
	itemUpdate(c, func(id int, req *priorityRequest) (*model.ListItem, error) {
		return h.Items.SetPriority(c.Request.Context(), id, subject(c), req.Priority)
	})
}

// SetTags PUT /api/items/:id/tags
func (h *Handler) SetTags(c *gin.Context) {
	itemUpdate(c, func(id int, req *tagsRequest) (*model.ListItem, error) {
		return h.Items.SetTags(c.Request.Context(), id, subject(c), req.Tags)
	})
}

// SetDates PUT /api/items/:id/dates
func (h *Handler) SetDates(c *gin.Context) {
	itemUpdate(c, func(id int, req *datesRequest) (*model.ListItem, error) {
		return h.Items.SetDates(c.Request.Context(), id, subject(c), req.StartedAt, req.FinishedAt)
	})
}

// SetSeasonStatus PUT /api/items/:id/seasons/:season/status
func (h *Handler) SetSeasonStatus(c *gin.Context) {
	seasonUpdate(c, func(id, season int, req *statusRequest) (*model.ListItem, error) {
		return h.Items.SetSeasonStatus(c.Request.Context(), id, subject(c), season, req.Status)
	})
}

// SetSeasonRating PUT /api/items/:id/seasons/:season/rating
func (h *Handler) SetSeasonRating(c *gin.Context) {
	seasonUpdate(c, func(id, season int, req *ratingRequest) (*model.ListItem, error) {
		return h.Items.SetSeasonRating(c.Request.Context(), id, subject(c), season, req.Rating)
	})
}

// SetSeasonNotes PUT /api/items/:id/seasons/:season/notes
func (h *Handler) SetSeasonNotes(c *gin.Context) {
	seasonUpdate(c, func(id, season int, req *notesRequest) (*model.ListItem, error) {
		return h.Items.SetSeasonNotes(c.Request.Context(), id, subject(c), season, req.Notes)
	})
}

// SetSeasonDates PUT /api/items/:id/seasons/:season/dates
func (h *Handler) SetSeasonDates(c *gin.Context) {
	seasonUpdate(c, func(id, season int, req *datesRequest) (*model.ListItem, error) {
		return h.Items.SetSeasonDates(c.Request.Context(), id, subject(c), season, req.StartedAt, req.FinishedAt)
	})
}
