package api

import "github.com/gin-gonic/gin"

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	r.GET("/", h.Welcome)
	r.GET("/healthz", h.Healthz)

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		apiV1.POST("/upsert-pdf", h.UpsertPDF)
		apiV1.POST("/query-pdf", h.QueryPDF)

		apiV1.GET("/users/:user_id/rooms", h.ListRooms)

		rooms := apiV1.Group("/rooms")
		{
			rooms.GET("/:room_id/messages", h.ListMessages)
			rooms.DELETE("/:room_id", h.DeleteRoom)
		}
	}

	return r
}
