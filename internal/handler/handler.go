package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/middleware"
	"github.com/user/cowatch/internal/service"
	"github.com/user/cowatch/internal/utils"
)

// Handler HTTP 处理器
type Handler struct {
	Config  *config.Config
	Users   *service.UserDirectory
	Lists   *service.ListService
	Items   *service.ItemService
	Catalog *service.CatalogService
}

// NewHandler 创建处理器
func NewHandler(cfg *config.Config, users *service.UserDirectory, lists *service.ListService, items *service.ItemService, catalog *service.CatalogService) *Handler {
	return &Handler{
		Config:  cfg,
		Users:   users,
		Lists:   lists,
		Items:   items,
		Catalog: catalog,
	}
}

// respondError 按错误类别映射 HTTP 状态码，内部错误不向调用方暴露细节
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	switch kind {
	case apperr.KindNotFound:
		utils.Error(c, http.StatusNotFound, kind.String(), apperr.MessageOf(err))
	case apperr.KindUnauthorized:
		utils.Error(c, http.StatusForbidden, kind.String(), apperr.MessageOf(err))
	case apperr.KindValidation:
		utils.Error(c, http.StatusBadRequest, kind.String(), apperr.MessageOf(err))
	case apperr.KindConflict:
		utils.Error(c, http.StatusConflict, kind.String(), apperr.MessageOf(err))
	case apperr.KindUpstream:
		utils.Logger.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("[Handler] 上游服务失败")
		utils.Error(c, http.StatusBadGateway, kind.String(), apperr.MessageOf(err))
	default:
		utils.Logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("[Handler] 请求处理失败")
		utils.InternalServerError(c, "")
	}
}

// idParam 解析路径中的正整数 ID
func idParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "无效的 "+name)
		return 0, false
	}
	return id, true
}

// bind 解析 JSON 请求体，失败时直接返回 400
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequest(c, "请求参数错误")
		return false
	}
	return true
}

func subject(c *gin.Context) string {
	return middleware.GetSubject(c)
}
