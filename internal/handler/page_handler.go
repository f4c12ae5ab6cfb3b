package handler

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/editor"
	"github.com/inkpress/internal/service"
)

// pagePayload 是页面创建/更新接口的请求体。
type pagePayload struct {
	Title           string `json:"title"`
	Slug            string `json:"slug"`
	Content         string `json:"content"`
	MetaDescription string `json:"meta_description"`
	IsPublished     bool   `json:"is_published"`
}

// pageSizeOptions 是后台列表可选的每页条数。
var pageSizeOptions = []int{10, 20, 50}

// pageListView 是对全量页面集合做内存分页后的结果。
type pageListView struct {
	Items      []db.Page
	Total      int
	Page       int
	PerPage    int
	TotalPages int
	HasPrev    bool
	HasNext    bool
}

// paginatePages 在已取回的全量集合上分页：页码收敛到可用范围，不回绕。
func paginatePages(items []db.Page, page, perPage int) pageListView {
	allowed := false
	for _, option := range pageSizeOptions {
		if perPage == option {
			allowed = true
			break
		}
	}
	if !allowed {
		perPage = pageSizeOptions[0]
	}

	totalPages := (len(items) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return pageListView{
		Items:      items[start:end],
		Total:      len(items),
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// GetPages 返回全部页面记录
func (a *API) GetPages(c *gin.Context) {
	pages, err := a.pages.ListAll()
	if err != nil {
		a.log.Error().Err(err).Msg("获取页面列表失败")
		respondError(c, http.StatusInternalServerError, "获取页面列表失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"pages": pages})
}

// GetPage 返回单个页面记录
func (a *API) GetPage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}

	page, err := a.pages.Get(id)
	if err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		a.log.Error().Err(err).Uint("id", id).Msg("获取页面失败")
		respondError(c, http.StatusInternalServerError, "获取页面失败")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// CreatePage 创建页面，created_by 由当前会话用户决定
func (a *API) CreatePage(c *gin.Context) {
	var payload pagePayload
	if !bindJSON(c, &payload, "页面数据格式不正确") {
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "未登录")
		return
	}

	content, ok := a.normalizeContent(c, payload.Content)
	if !ok {
		return
	}

	page, err := a.pages.Create(service.PageInput{
		Title:           payload.Title,
		Slug:            payload.Slug,
		Content:         content,
		MetaDescription: payload.MetaDescription,
		IsPublished:     payload.IsPublished,
		CreatedBy:       userID,
	})
	if err != nil {
		a.respondPageError(c, err, "创建页面失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "页面创建成功", "page": page})
}

// UpdatePage 更新页面的可编辑字段
func (a *API) UpdatePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}

	var payload pagePayload
	if !bindJSON(c, &payload, "页面数据格式不正确") {
		return
	}

	content, ok := a.normalizeContent(c, payload.Content)
	if !ok {
		return
	}

	page, err := a.pages.Update(id, service.PageInput{
		Title:           payload.Title,
		Slug:            payload.Slug,
		Content:         content,
		MetaDescription: payload.MetaDescription,
		IsPublished:     payload.IsPublished,
	})
	if err != nil {
		a.respondPageError(c, err, "更新页面失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "页面更新成功", "page": page})
}

// DeletePage 删除页面
func (a *API) DeletePage(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的页面ID")
		return
	}

	if err := a.pages.Delete(id); err != nil {
		if errors.Is(err, service.ErrPageNotFound) {
			respondError(c, http.StatusNotFound, "页面不存在")
			return
		}
		a.log.Error().Err(err).Uint("id", id).Msg("删除页面失败")
		respondError(c, http.StatusInternalServerError, "删除页面失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "页面删除成功"})
}

// ShowPageList 渲染页面管理列表
func (a *API) ShowPageList(c *gin.Context) {
	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	perPage := pageSizeOptions[0]
	if pp, err := strconv.Atoi(c.Query("per_page")); err == nil && pp > 0 {
		perPage = pp
	}

	pages, err := a.pages.ListAll()
	if err != nil {
		a.log.Error().Err(err).Msg("获取页面列表失败")
		a.renderHTML(c, http.StatusInternalServerError, "page_list.html", gin.H{
			"title": "页面管理",
			"error": "获取页面列表失败",
		})
		return
	}

	view := paginatePages(pages, page, perPage)
	a.renderHTML(c, http.StatusOK, "page_list.html", gin.H{
		"title":          "页面管理",
		"pages":          view.Items,
		"total":          view.Total,
		"page":           view.Page,
		"perPage":        view.PerPage,
		"totalPages":     view.TotalPages,
		"hasPrev":        view.HasPrev,
		"hasNext":        view.HasNext,
		"perPageOptions": pageSizeOptions,
	})
}

// ShowPageCreate 渲染页面创建表单
func (a *API) ShowPageCreate(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "page_edit.html", gin.H{
		"title": "创建页面",
	})
}

// ShowPageEdit 渲染页面编辑表单
func (a *API) ShowPageEdit(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.ShowNotFound(c)
		return
	}

	page, err := a.pages.Get(id)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			a.log.Error().Err(err).Uint("id", id).Msg("加载页面失败")
		}
		a.ShowNotFound(c)
		return
	}

	// 编辑区需要载入原始 HTML，交给模板转义会让内容以实体文本出现
	a.renderHTML(c, http.StatusOK, "page_edit.html", gin.H{
		"title":   "编辑页面",
		"page":    page,
		"content": template.HTML(page.Content),
	})
}

// normalizeContent 将提交的正文过一遍编辑器文档模型，得到规范序列化。
// 空正文原样保留，不生成占位段落。
func (a *API) normalizeContent(c *gin.Context, raw string) (string, bool) {
	if strings.TrimSpace(raw) == "" {
		return raw, true
	}

	content, err := editor.NormalizeHTML(raw)
	if err != nil {
		a.log.Error().Err(err).Msg("页面内容解析失败")
		respondError(c, http.StatusBadRequest, "页面内容格式不正确")
		return "", false
	}
	return content, true
}

// respondPageError 将服务层错误映射为 JSON 响应。
func (a *API) respondPageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrTitleRequired):
		respondError(c, http.StatusBadRequest, "请填写页面标题")
	case errors.Is(err, service.ErrSlugRequired):
		respondError(c, http.StatusBadRequest, "请填写页面路径")
	case errors.Is(err, service.ErrSlugTaken):
		respondError(c, http.StatusConflict, "页面路径已被占用")
	case errors.Is(err, service.ErrPageNotFound):
		respondError(c, http.StatusNotFound, "页面不存在")
	default:
		a.log.Error().Err(err).Msg(fallback)
		respondError(c, http.StatusInternalServerError, fallback)
	}
}
