package handler

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkpress/internal/editor"

	_ "golang.org/x/image/webp"
)

// UploadEditorImage 处理编辑器的图片上传：时间戳命名、
// 同名对象直接复用公开地址，不再二次写入。
func (a *API) UploadEditorImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传的图片", "success": 0})
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "只允许上传图片文件", "success": 0})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败", "success": 0})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败", "success": 0})
		return
	}

	width, height := probeImageSize(data)

	url, reused, err := editor.StoreImage(a.store, time.Now, file.Filename, data)
	if err != nil {
		a.log.Error().Err(err).Str("filename", file.Filename).Msg("图片上传失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "success": 0})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "上传成功",
		"data": gin.H{
			"url":    url,
			"width":  width,
			"height": height,
			"reused": reused,
		},
	})
}

// UploadMedia 处理通用附件上传，使用日期加 UUID 的唯一文件名。
func (a *API) UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传的文件", "success": 0})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败", "success": 0})
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取文件失败", "success": 0})
		return
	}

	ext := filepath.Ext(file.Filename)
	name := fmt.Sprintf("%s-%s%s", time.Now().Format("20060102"), uuid.New().String(), ext)
	objectPath := "media/" + name

	if err := a.store.Upload(objectPath, data); err != nil {
		a.log.Error().Err(err).Str("filename", file.Filename).Msg("附件上传失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存文件失败", "success": 0})
		return
	}

	fileURL := a.store.PublicURL(objectPath)
	c.JSON(http.StatusOK, gin.H{
		"success": 1,
		"message": "上传成功",
		"data": gin.H{
			"filePath": fileURL,
			"url":      fileURL,
		},
	})
}

// markdownPayload 是 Markdown 导入接口的请求体。
type markdownPayload struct {
	Markdown string `json:"markdown"`
}

// ConvertMarkdown 将 Markdown 转换为编辑器使用的 HTML。
func (a *API) ConvertMarkdown(c *gin.Context) {
	var payload markdownPayload
	if !bindJSON(c, &payload, "内容格式不正确") {
		return
	}

	html, err := editor.RenderMarkdown(payload.Markdown)
	if err != nil {
		a.log.Error().Err(err).Msg("Markdown 转换失败")
		respondError(c, http.StatusInternalServerError, "Markdown 转换失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"html": html})
}

// probeImageSize 解析图片尺寸，失败时返回零值。
func probeImageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
