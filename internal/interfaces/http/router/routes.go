// Package router 提供 HTTP 路由配置
package router

import (
	"brand-studio-api/internal/interfaces/http/handler"

	"github.com/gin-gonic/gin"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	funnelHandler *handler.FunnelHandler,
	projectHandler *handler.ProjectHandler,
	assetHandler *handler.AssetHandler,
) {
	// 漏斗会话
	sessions := v1.Group("/sessions")
	{
		sessions.GET("", funnelHandler.ListSessions)
		sessions.POST("", funnelHandler.CreateSession)
		sessions.GET("/:sid", funnelHandler.GetSession)
		sessions.GET("/:sid/state", funnelHandler.GetState)
		sessions.GET("/:sid/turns", funnelHandler.ListTurns)
		sessions.POST("/:sid/messages", funnelHandler.SendMessage)
		sessions.POST("/:sid/stream", funnelHandler.StreamMessage)
	}

	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.GET("/:pid", projectHandler.GetProject)
		projects.PUT("/:pid", projectHandler.UpdateProject)
		projects.DELETE("/:pid", projectHandler.DeleteProject)

		// 项目下已保存的资产
		projects.GET("/:pid/assets", assetHandler.ListAssets)
		projects.POST("/:pid/assets", assetHandler.SaveAsset)
		projects.DELETE("/:pid/assets/:aid", assetHandler.DeleteAsset)
	}
}
