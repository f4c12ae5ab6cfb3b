package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "管理员登录",
	})
}

// Login 处理管理员登录请求
func (a *API) Login(c *gin.Context) {
	username := c.PostForm("username")
	password := c.PostForm("password")

	// 查找用户
	var user db.User
	if err := a.db.Where("username = ?", username).First(&user).Error; err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title": "管理员登录",
			"error": "用户名或密码错误",
		})
		return
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		a.renderHTML(c, http.StatusUnauthorized, "login.html", gin.H{
			"title": "管理员登录",
			"error": "用户名或密码错误",
		})
		return
	}

	// 后台只对管理员角色开放
	if !user.IsAdmin() {
		a.renderHTML(c, http.StatusForbidden, "login.html", gin.H{
			"title": "管理员登录",
			"error": "该账号无后台访问权限",
		})
		return
	}

	// 设置会话
	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Set("username", user.Username)
	if err := session.Save(); err != nil {
		a.log.Error().Err(err).Msg("会话保存失败")
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "管理员登录",
			"error": "会话保存失败",
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

// Logout 处理登出
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Redirect(http.StatusFound, "/auth")
}

// ShowDashboard 渲染后台主面板
func (a *API) ShowDashboard(c *gin.Context) {
	session := sessions.Default(c)
	username := session.Get("username")

	var pageCount int64
	a.db.Model(&db.Page{}).Count(&pageCount)

	var publishedCount int64
	a.db.Model(&db.Page{}).Where("is_published = ?", true).Count(&publishedCount)

	a.renderHTML(c, http.StatusOK, "dashboard.html", gin.H{
		"title":          "管理面板",
		"username":       username,
		"pageCount":      pageCount,
		"publishedCount": publishedCount,
	})
}

// AuthRequired 保护后台路由的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID := session.Get("user_id")
		if userID == nil {
			c.Redirect(http.StatusFound, "/auth")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中解析当前登录用户，作为 created_by 的来源。
func currentUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	raw := session.Get("user_id")
	if raw == nil {
		return 0, false
	}
	id, ok := raw.(uint)
	if !ok {
		return 0, false
	}
	return id, true
}
