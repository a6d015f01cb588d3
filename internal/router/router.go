package router

import (
	"net/http"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/handler"
	"github.com/user/cowatch/internal/middleware"
)

// 目录接口每个调用方的限流
const (
	catalogRPS   = 5
	catalogBurst = 10
)

// New 创建 gin 引擎并注册全部中间件与路由
func New(h *handler.Handler, auth middleware.Authenticator) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.CORS(h.Config.CORSOrigins))

	RegisterRoutes(r, h, auth)
	return r
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler, auth middleware.Authenticator) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 身份同步回调 ====================
	r.POST("/webhooks/identity", h.IdentityWebhook)

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(auth))

	// ==================== 用户 ====================
	api.GET("/me", h.Me)
	api.GET("/users/search", h.SearchUsers)

	// ==================== 片单 ====================
	lists := api.Group("/lists")
	{
		lists.GET("", h.VisibleLists)
		lists.POST("", h.CreateList)
		lists.GET("/:id", h.GetList)
		lists.PATCH("/:id", h.UpdateList)
		lists.DELETE("/:id", h.DeleteList)

		lists.GET("/:id/members", h.Members)
		lists.POST("/:id/members", h.AddMember)
		lists.PATCH("/:id/members/:subject", h.UpdateMemberRole)
		lists.DELETE("/:id/members/:subject", h.RemoveMember)
		lists.POST("/:id/leave", h.LeaveList)

		lists.GET("/:id/items", h.ListItems)
		lists.POST("/:id/items", h.AddItem)
		lists.GET("/:id/export", h.ExportList)
	}

	// ==================== 条目 ====================
	items := api.Group("/items")
	{
		items.DELETE("/:id", h.DeleteItem)
		items.PUT("/:id/status", h.SetStatus)
		items.PUT("/:id/rating", h.SetRating)
		items.PUT("/:id/notes", h.SetNotes)
		items.PUT("/:id/priority", h.SetPriority)
		items.PUT("/:id/tags", h.SetTags)
		items.PUT("/:id/dates", h.SetDates)

		items.PUT("/:id/seasons/:season/status", h.SetSeasonStatus)
		items.PUT("/:id/seasons/:season/rating", h.SetSeasonRating)
		items.PUT("/:id/seasons/:season/notes", h.SetSeasonNotes)
		items.PUT("/:id/seasons/:season/dates", h.SetSeasonDates)
	}

	// ==================== 媒体目录 ====================
	catalog := api.Group("")
	catalog.Use(middleware.RateLimit(catalogRPS, catalogBurst))
	{
		catalog.GET("/search", h.SearchCatalog)
		catalog.POST("/media", h.GetOrCreateMedia)
	}
}
