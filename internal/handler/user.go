package handler

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/middleware"
	"github.com/user/cowatch/internal/utils"
)

// WebhookSecretHeader 身份同步回调的共享密钥
const WebhookSecretHeader = "X-Webhook-Secret"

// 身份同步事件类型
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

type identityEvent struct {
	Type string `json:"type"`
	Data struct {
		Subject   string  `json:"subject"`
		Email     string  `json:"email"`
		Name      *string `json:"name"`
		AvatarURL *string `json:"avatar_url"`
	} `json:"data"`
}

// Me GET /api/me，目录中尚无记录时用令牌信息补建
func (h *Handler) Me(c *gin.Context) {
	identity := middleware.GetIdentity(c)
	user, err := h.Users.FindBySubject(c.Request.Context(), identity.Subject)
	if err != nil && apperr.KindOf(err) == apperr.KindNotFound && identity.Email != "" {
		var name, picture *string
		if identity.Name != "" {
			name = &identity.Name
		}
		if identity.Picture != "" {
			picture = &identity.Picture
		}
		if _, err = h.Users.SyncUser(c.Request.Context(), identity.Subject, identity.Email, name, picture); err == nil {
			user, err = h.Users.FindBySubject(c.Request.Context(), identity.Subject)
		}
	}
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, user)
}

// SearchUsers GET /api/users/search?email=
func (h *Handler) SearchUsers(c *gin.Context) {
	users, err := h.Users.SearchByEmail(c.Request.Context(), c.Query("email"), subject(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, users)
}

// IdentityWebhook POST /webhooks/identity
func (h *Handler) IdentityWebhook(c *gin.Context) {
	secret := h.Config.WebhookSecret
	given := c.GetHeader(WebhookSecretHeader)
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(given)) != 1 {
		utils.Unauthorized(c, "签名无效")
		return
	}

	var event identityEvent
	if !bind(c, &event) {
		return
	}

	ctx := c.Request.Context()
	switch event.Type {
	case EventUserCreated, EventUserUpdated:
		id, err := h.Users.SyncUser(ctx, event.Data.Subject, event.Data.Email, event.Data.Name, event.Data.AvatarURL)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.Success(c, gin.H{"id": id})
	case EventUserDeleted:
		if err := h.Users.DeleteUser(ctx, event.Data.Subject); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			respondError(c, err)
			return
		}
		utils.Success(c, nil)
	default:
		// 未关注的事件直接确认，避免身份提供方重试
		c.JSON(http.StatusAccepted, utils.Response{Code: http.StatusAccepted, Message: "ignored", Success: true})
	}
}
