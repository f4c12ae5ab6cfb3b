package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/router"
	"github.com/inkpress/internal/service"
	"github.com/inkpress/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type e2eSuite struct {
	handler   http.Handler
	public    httpClient
	admin     httpClient
	baseURL   string
	uploadDir string
	adminPass string
	user      db.User
	published *db.Page
	draft     *db.Page
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type localClient struct {
	handler http.Handler
	jar     http.CookieJar
}

func newLocalClient(handler http.Handler, withJar bool) *localClient {
	var jar http.CookieJar
	if withJar {
		if j, err := cookiejar.New(nil); err == nil {
			jar = j
		}
	}
	return &localClient{handler: handler, jar: jar}
}

func (c *localClient) Do(req *http.Request) (*http.Response, error) {
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(req.URL) {
			req.AddCookie(cookie)
		}
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	resp := w.Result()
	if c.jar != nil {
		c.jar.SetCookies(req.URL, resp.Cookies())
	}
	return resp, nil
}

func TestE2E_AllInterfaces(t *testing.T) {
	suite := newE2ESuite(t)
	suite.login(t)

	t.Run("public endpoints", suite.testPublicEndpoints)
	t.Run("admin pages", suite.testAdminPages)
	suite.login(t) // 确保后续 API 测试有有效会话
	t.Run("admin apis", suite.testAdminAPIs)
}

func newE2ESuite(t *testing.T) *e2eSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.User{}, &db.Page{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}

	db.DB = gdb

	hashed, err := bcrypt.GenerateFromPassword([]byte("e2e-secret"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := db.User{Username: "admin", Password: string(hashed)}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	pageSvc := service.NewPageService(db.DB)
	published, err := pageSvc.Create(service.PageInput{
		Title:           "已发布页面",
		Slug:            "live",
		Content:         "<p>这是正文内容。</p>",
		MetaDescription: "已发布的测试页面",
		IsPublished:     true,
		CreatedBy:       user.ID,
	})
	if err != nil {
		t.Fatalf("failed to seed published page: %v", err)
	}

	draft, err := pageSvc.Create(service.PageInput{
		Title:       "草稿页面",
		Slug:        "draft",
		Content:     "<p>待发布的内容。</p>",
		IsPublished: false,
		CreatedBy:   user.ID,
	})
	if err != nil {
		t.Fatalf("failed to seed draft page: %v", err)
	}

	uploadDir := t.TempDir()
	store := storage.NewDiskStore(uploadDir, "/static/uploads")
	api := handler.NewAPI(db.DB, store, "Inkpress", zerolog.Nop())
	engine := router.SetupRouter(api, "test-session-secret", uploadDir, "/static/uploads", "../../web/template/*.html", zerolog.Nop())

	return &e2eSuite{
		handler:   engine,
		public:    newLocalClient(engine, false),
		admin:     newLocalClient(engine, true),
		baseURL:   "https://inkpress.test",
		uploadDir: uploadDir,
		adminPass: "e2e-secret",
		user:      user,
		published: published,
		draft:     draft,
	}
}

func (s *e2eSuite) login(t *testing.T) {
	t.Helper()
	form := url.Values{
		"username": {s.user.Username},
		"password": {s.adminPass},
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/auth", strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create login request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.admin.Do(req)
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound && resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed, status %d", resp.StatusCode)
	}
}

func (s *e2eSuite) testPublicEndpoints(t *testing.T) {
	t.Helper()

	checkHTML := func(name, path, expect string, code int) {
		t.Helper()
		resp := s.mustRequest(t, s.public, http.MethodGet, path, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != code {
			t.Fatalf("%s: expected status %d, got %d", name, code, resp.StatusCode)
		}
		body := readBody(t, resp)
		if expect != "" && !strings.Contains(body, expect) {
			t.Fatalf("%s: response does not contain %q", name, expect)
		}
	}

	checkHTML("home", "/", "已发布页面", http.StatusOK)
	checkHTML("page detail", "/page/live", "这是正文内容", http.StatusOK)
	checkHTML("draft hidden", "/page/draft", "404", http.StatusNotFound)
	checkHTML("unknown slug", "/page/missing", "404", http.StatusNotFound)
	checkHTML("login page", "/auth", "管理员登录", http.StatusOK)

	resp := s.mustRequest(t, s.public, http.MethodGet, "/ping", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping: expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "pong") {
		t.Fatalf("ping: unexpected body %q", body)
	}

	// 草稿首页不可见
	resp = s.mustRequest(t, s.public, http.MethodGet, "/", nil, nil)
	defer resp.Body.Close()
	if body := readBody(t, resp); strings.Contains(body, "/page/draft") {
		t.Fatalf("home must not link drafts, body=%s", body)
	}
}

func (s *e2eSuite) testAdminPages(t *testing.T) {
	t.Helper()
	needs200 := []string{
		"/admin",
		"/admin/pages",
		"/admin/pages/create",
		"/admin/pages/edit/" + idStr(s.published.ID),
	}

	for _, path := range needs200 {
		resp := s.mustRequest(t, s.admin, http.MethodGet, path, nil, nil)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s expected 200, got %d", path, resp.StatusCode)
		}
	}

	// 未登录访问后台被重定向到登录页
	resp := s.mustRequest(t, s.public, http.MethodGet, "/admin/pages", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("anonymous admin access expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/auth" {
		t.Fatalf("unexpected redirect location %q", loc)
	}
}

func (s *e2eSuite) testAdminAPIs(t *testing.T) {
	t.Helper()

	resp := s.mustRequest(t, s.admin, http.MethodGet, "/admin/api/pages", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list pages expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodGet, "/admin/api/pages/"+idStr(s.published.ID), nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get page expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/admin/api/pages", map[string]interface{}{
		"title":            "E2E 新页面",
		"slug":             "e2e-new",
		"content":          "<p>测试内容。</p>",
		"meta_description": "E2E 描述",
		"is_published":     false,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create page expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var created struct {
		Page struct {
			ID        uint `json:"id"`
			CreatedBy uint `json:"created_by"`
		} `json:"page"`
	}
	decodeJSON(t, resp, &created)
	if created.Page.ID == 0 {
		t.Fatalf("create page returned empty id")
	}
	if created.Page.CreatedBy != s.user.ID {
		t.Fatalf("expected created_by %d, got %d", s.user.ID, created.Page.CreatedBy)
	}

	// 草稿未发布前前台不可见
	resp = s.mustRequest(t, s.public, http.MethodGet, "/page/e2e-new", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unpublished page expected 404, got %d", resp.StatusCode)
	}

	updatePath := "/admin/api/pages/" + idStr(created.Page.ID)
	resp = s.mustRequestJSON(t, s.admin, http.MethodPut, updatePath, map[string]interface{}{
		"title":            "E2E 新页面",
		"slug":             "e2e-new",
		"content":          "<p>更新后的内容。</p>",
		"meta_description": "E2E 描述",
		"is_published":     true,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update page expected 200, got %d", resp.StatusCode)
	}

	// 发布后前台可见
	resp = s.mustRequest(t, s.public, http.MethodGet, "/page/e2e-new", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("published page expected 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "<p>更新后的内容。</p>") {
		t.Fatalf("expected updated content verbatim, body=%s", body)
	}

	// 重复 slug 创建冲突
	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/admin/api/pages", map[string]interface{}{
		"title": "冲突页面",
		"slug":  "e2e-new",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate slug expected 409, got %d", resp.StatusCode)
	}

	resp = s.mustRequestJSON(t, s.admin, http.MethodPost, "/admin/api/markdown", map[string]interface{}{
		"markdown": "# E2E 标题",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("markdown convert expected 200, got %d", resp.StatusCode)
	}
	var converted struct {
		HTML string `json:"html"`
	}
	decodeJSON(t, resp, &converted)
	if !strings.Contains(converted.HTML, "<h1>E2E 标题</h1>") {
		t.Fatalf("unexpected markdown output: %q", converted.HTML)
	}

	resp = s.uploadTestImage(t)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload image expected 200, got %d, body=%s", resp.StatusCode, readBody(t, resp))
	}
	var uploadResp struct {
		Success int `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &uploadResp)
	if uploadResp.Success != 1 || uploadResp.Data.URL == "" {
		t.Fatalf("unexpected upload response: %+v", uploadResp)
	}

	// 上传后的图片通过静态路由可访问
	resp = s.mustRequest(t, s.public, http.MethodGet, uploadResp.Data.URL, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("uploaded image expected 200, got %d", resp.StatusCode)
	}

	resp = s.mustRequest(t, s.admin, http.MethodDelete, updatePath, nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete page expected 200, got %d", resp.StatusCode)
	}

	// 删除后前台回到 404
	resp = s.mustRequest(t, s.public, http.MethodGet, "/page/e2e-new", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("deleted page expected 404, got %d", resp.StatusCode)
	}
}

func (s *e2eSuite) uploadTestImage(t *testing.T) *http.Response {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	partHeader := textproto.MIMEHeader{}
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, "image", "test.png"))
	partHeader.Set("Content-Type", "image/png")
	part, err := writer.CreatePart(partHeader)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(buf.Bytes()); err != nil {
		t.Fatalf("failed to write image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	headers := map[string]string{
		"Content-Type": writer.FormDataContentType(),
	}
	return s.mustRequest(t, s.admin, http.MethodPost, "/admin/api/upload/image", body, headers)
}

func (s *e2eSuite) mustRequest(t *testing.T, client httpClient, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, s.baseURL+path, body)
	if err != nil {
		t.Fatalf("failed to build request %s %s: %v", method, path, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	return resp
}

func (s *e2eSuite) mustRequestJSON(t *testing.T, client httpClient, method, path string, payload map[string]interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	headers := map[string]string{"Content-Type": "application/json"}
	return s.mustRequest(t, client, method, path, bytes.NewReader(data), headers)
}

func decodeJSON(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	body := readBody(t, resp)
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		t.Fatalf("failed to decode json: %v\nbody=%s", err, body)
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return string(data)
}

func idStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
