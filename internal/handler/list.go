package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/service"
	"github.com/user/cowatch/internal/utils"
)

type createListRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	DefaultSort string  `json:"default_sort"`
}

type addMemberRequest struct {
	// Target 用户标识或邮箱
	Target string `json:"target"`
	Role   string `json:"role"`
}

type memberRoleRequest struct {
	Role string `json:"role"`
}

// VisibleLists GET /api/lists
func (h *Handler) VisibleLists(c *gin.Context) {
	views, err := h.Lists.ListsVisibleTo(c.Request.Context(), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, views)
}

// GetList GET /api/lists/:id
func (h *Handler) GetList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.Lists.GetList(c.Request.Context(), id, subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, view)
}

// CreateList POST /api/lists
func (h *Handler) CreateList(c *gin.Context) {
	var req createListRequest
	if !bind(c, &req) {
		return
	}
	list, err := h.Lists.CreateList(c.Request.Context(), subject(c), req.Name, req.Description, req.DefaultSort)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, list)
}

// UpdateList PATCH /api/lists/:id
func (h *Handler) UpdateList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.ListUpdate
	if !bind(c, &req) {
		return
	}
	list, err := h.Lists.UpdateList(c.Request.Context(), id, subject(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, list)
}

// DeleteList DELETE /api/lists/:id
func (h *Handler) DeleteList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Lists.DeleteList(c.Request.Context(), id, subject(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// Members GET /api/lists/:id/members
func (h *Handler) Members(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	members, err := h.Lists.ListMembers(c.Request.Context(), id, subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, members)
}

// AddMember POST /api/lists/:id/members
func (h *Handler) AddMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req addMemberRequest
	if !bind(c, &req) {
		return
	}
	member, err := h.Lists.AddMember(c.Request.Context(), id, subject(c), req.Target, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Created(c, member)
}

// UpdateMemberRole PATCH /api/lists/:id/members/:subject
func (h *Handler) UpdateMemberRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req memberRoleRequest
	if !bind(c, &req) {
		return
	}
	member, err := h.Lists.UpdateMemberRole(c.Request.Context(), id, subject(c), c.Param("subject"), req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, member)
}

// RemoveMember DELETE /api/lists/:id/members/:subject
func (h *Handler) RemoveMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Lists.RemoveMember(c.Request.Context(), id, subject(c), c.Param("subject")); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}

// LeaveList POST /api/lists/:id/leave
func (h *Handler) LeaveList(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Lists.LeaveList(c.Request.Context(), id, subject(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, nil)
}
