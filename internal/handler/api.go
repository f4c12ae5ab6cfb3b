package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	pages    *service.PageService
	store    storage.Store
	log      zerolog.Logger
	siteName string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(gdb *gorm.DB, store storage.Store, siteName string, log zerolog.Logger) *API {
	return &API{
		db:       gdb,
		pages:    service.NewPageService(gdb),
		store:    store,
		log:      log,
		siteName: siteName,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

// renderHTML 在向模板渲染时自动附加站点名称与年份。
func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().Year()
	}
	c.HTML(status, template, payload)
}
