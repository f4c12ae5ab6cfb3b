package db

import "gorm.io/gorm"

// Page 站点内容页模型，后台编辑、前台按 slug 访问。
// Content 存储编辑器序列化后的 HTML。
type Page struct {
	gorm.Model
	Title           string `gorm:"not null" json:"title"`
	Slug            string `gorm:"uniqueIndex;not null" json:"slug"`
	Content         string `gorm:"type:text" json:"content"`
	MetaDescription string `json:"meta_description"`
	IsPublished     bool   `gorm:"default:false" json:"is_published"`
	CreatedBy       uint   `json:"created_by"`
}
