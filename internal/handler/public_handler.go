package handler

import (
	"errors"
	htmlstd "html"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/service"
	"github.com/microcosm-cc/bluemonday"
)

// excerptPolicy 用于从存储的 HTML 中提取纯文本摘要。
var excerptPolicy = bluemonday.StrictPolicy()

// homePageItem 是首页列表中的一项。
type homePageItem struct {
	Title       string
	Slug        string
	Description string
	CreatedAt   string
}

// ShowHome renders the public index: published pages, newest first.
func (a *API) ShowHome(c *gin.Context) {
	pages, err := a.pages.ListPublished()
	if err != nil {
		a.log.Error().Err(err).Msg("获取已发布页面失败")
		a.renderHTML(c, http.StatusInternalServerError, "home.html", gin.H{
			"title": "首页",
			"error": "获取页面失败",
		})
		return
	}

	items := make([]homePageItem, 0, len(pages))
	for _, page := range pages {
		description := strings.TrimSpace(page.MetaDescription)
		if description == "" {
			description = excerptContent(page.Content)
		}
		items = append(items, homePageItem{
			Title:       page.Title,
			Slug:        page.Slug,
			Description: description,
			CreatedAt:   page.CreatedAt.Format("2006-01-02"),
		})
	}

	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title": "首页",
		"pages": items,
	})
}

// ShowPage resolves a slug to exactly one published page and renders
// its stored HTML verbatim. Authoring is restricted to trusted admins,
// so the content is not sanitized on the way out.
func (a *API) ShowPage(c *gin.Context) {
	slug := c.Param("slug")

	page, err := a.pages.GetPublishedBySlug(slug)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			a.log.Error().Err(err).Str("slug", slug).Msg("解析页面失败")
		}
		a.ShowNotFound(c)
		return
	}

	a.renderHTML(c, http.StatusOK, "page.html", gin.H{
		"title":           page.Title,
		"metaDescription": page.MetaDescription,
		"content":         template.HTML(page.Content),
		"updatedAt":       page.UpdatedAt.Format("2006-01-02"),
	})
}

// ShowNotFound 渲染 404 页面，附带返回首页的入口。
func (a *API) ShowNotFound(c *gin.Context) {
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{
		"title": "页面不存在",
	})
}

// excerptContent 剥离标签并截断，作为列表摘要。
func excerptContent(content string) string {
	plain := htmlstd.UnescapeString(excerptPolicy.Sanitize(content))
	plain = strings.Join(strings.Fields(plain), " ")
	if plain == "" {
		return ""
	}

	const limit = 120
	if utf8.RuneCountInString(plain) <= limit {
		return plain
	}

	runes := []rune(plain)
	return string(runes[:limit]) + "…"
}
