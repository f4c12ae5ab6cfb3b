package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/handler"
	"github.com/rs/zerolog"
)

// SetupRouter 配置 Gin 引擎和路由。
// templateGlob 为空时跳过模板加载（测试中只打 JSON 接口）。
func SetupRouter(api *handler.API, sessionSecret, uploadDir, uploadURLPath, templateGlob string, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(requestLogger(log), recovery(log))

	// 配置会话中间件
	store := cookie.NewStore([]byte(sessionSecret))
	r.Use(sessions.Sessions("inkpress_session", store))

	// 加载模板并添加自定义函数
	r.SetFuncMap(template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	})
	if templateGlob != "" {
		r.LoadHTMLGlob(templateGlob)
	}

	// 静态文件服务
	if uploadDir != "" {
		r.Static(uploadURLPath, uploadDir)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// 前台路由
	r.GET("/", api.ShowHome)
	r.GET("/page/:slug", api.ShowPage)

	// 登录入口
	r.GET("/auth", api.ShowLoginPage)
	r.POST("/auth", api.Login)
	r.GET("/auth/logout", api.Logout)

	// 后台管理路由，统一要求认证
	admin := r.Group("/admin")
	admin.Use(handler.AuthRequired())
	{
		admin.GET("", api.ShowDashboard)
		admin.GET("/pages", api.ShowPageList)
		admin.GET("/pages/create", api.ShowPageCreate)
		admin.GET("/pages/edit/:id", api.ShowPageEdit)

		// API路由
		apiGroup := admin.Group("/api")
		{
			apiGroup.GET("/pages", api.GetPages)
			apiGroup.GET("/pages/:id", api.GetPage)
			apiGroup.POST("/pages", api.CreatePage)
			apiGroup.PUT("/pages/:id", api.UpdatePage)
			apiGroup.DELETE("/pages/:id", api.DeletePage)

			apiGroup.POST("/upload/image", api.UploadEditorImage)
			apiGroup.POST("/upload/media", api.UploadMedia)
			apiGroup.POST("/markdown", api.ConvertMarkdown)
		}
	}

	// 其余路径走 404 页面
	r.NoRoute(api.ShowNotFound)

	return r
}

// requestLogger 记录每个请求的结果。
func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		if status >= 400 {
			event = log.Warn()
		}
		if status >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("request completed")
	}
}

// recovery 捕获处理过程中的 panic。
func recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
				})
			}
		}()
		c.Next()
	}
}
