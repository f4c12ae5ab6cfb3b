package main

import (
	"fmt"
	"log"

	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"golang.org/x/crypto/bcrypt"
)

// 测试数据生成器
func main() {
	// 初始化数据库
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	// 创建测试用户
	createTestUsers()

	// 创建测试页面
	createTestPages()

	fmt.Println("测试数据生成完成！")
	fmt.Println("用户: admin (密码: admin123)")
	fmt.Println("页面: 5个测试页面")
}

// 创建测试用户
func createTestUsers() {
	// 检查是否已存在用户
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，跳过创建")
		return
	}

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := db.User{
		Username: "admin",
		Password: string(hashedPassword),
	}
	db.DB.Create(&admin)

	fmt.Println("创建用户: admin")
}

// 创建测试页面
func createTestPages() {
	// 检查是否已存在页面
	var count int64
	db.DB.Model(&db.Page{}).Count(&count)
	if count > 0 {
		fmt.Println("页面已存在，跳过创建")
		return
	}

	var admin db.User
	db.DB.Where("username = ?", "admin").First(&admin)

	pages := []db.Page{
		{
			Title:           "关于我们",
			Slug:            "about",
			Content:         "<h1>关于我们</h1><p>这里是站点介绍。</p>",
			MetaDescription: "站点介绍页面",
			IsPublished:     true,
			CreatedBy:       admin.ID,
		},
		{
			Title:           "联系方式",
			Slug:            "contact",
			Content:         "<h1>联系方式</h1><p>邮箱：hello@example.com</p>",
			MetaDescription: "联系我们",
			IsPublished:     true,
			CreatedBy:       admin.ID,
		},
		{
			Title:           "服务条款",
			Slug:            "terms",
			Content:         "<h1>服务条款</h1><p>使用本站点即表示同意以下条款。</p>",
			MetaDescription: "服务条款",
			IsPublished:     true,
			CreatedBy:       admin.ID,
		},
		{
			Title:       "隐私政策",
			Slug:        "privacy",
			Content:     "<h1>隐私政策</h1><p>草稿中，尚未发布。</p>",
			IsPublished: false,
			CreatedBy:   admin.ID,
		},
		{
			Title:       "常见问题",
			Slug:        "faq",
			Content:     "<h2>常见问题</h2><ul><li>如何登录后台？</li><li>如何发布页面？</li></ul>",
			IsPublished: false,
			CreatedBy:   admin.ID,
		},
	}

	for i := range pages {
		if err := db.DB.Create(&pages[i]).Error; err != nil {
			fmt.Printf("创建页面失败 %s: %v\n", pages[i].Slug, err)
			continue
		}
		fmt.Printf("创建页面: %s\n", pages[i].Title)
	}
}
