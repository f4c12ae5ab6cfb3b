package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/storage"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouterTest(t *testing.T, uploadDir, templateGlob string) (*gin.Engine, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := gdb.AutoMigrate(&db.User{}, &db.Page{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	db.DB = gdb

	store := storage.NewDiskStore(t.TempDir(), "/static/uploads")
	api := handler.NewAPI(db.DB, store, "Inkpress", zerolog.Nop())
	r := SetupRouter(api, "test-secret", uploadDir, "/static/uploads", templateGlob, zerolog.Nop())

	return r, func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func TestPing(t *testing.T) {
	r, cleanup := setupRouterTest(t, "", "")
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "pong") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestStaticUploadsServed(t *testing.T) {
	uploadDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(uploadDir, "public"), 0o755); err != nil {
		t.Fatalf("failed to create upload dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(uploadDir, "public", "1.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("failed to write upload file: %v", err)
	}

	r, cleanup := setupRouterTest(t, uploadDir, "")
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/static/uploads/public/1.png", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if w.Body.String() != "png-bytes" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestNoRouteRendersNotFoundPage(t *testing.T) {
	r, cleanup := setupRouterTest(t, "", "../../web/template/*.html")
	defer cleanup()

	req := httptest.NewRequest(http.MethodGet, "/no/such/path", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "页面不存在") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
