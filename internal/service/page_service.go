package service

import (
	"errors"
	"strings"

	"github.com/inkpress/internal/db"
	"gorm.io/gorm"
)

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrTitleRequired = errors.New("page title is required")
	ErrSlugRequired  = errors.New("page slug is required")
	ErrSlugTaken     = errors.New("page slug is already taken")
)

// PageService wraps page related database operations.
type PageService struct {
	db *gorm.DB
}

// PageInput represents fields accepted when creating or updating a page.
// CreatedBy is resolved from the session on create and immutable after.
type PageInput struct {
	Title           string
	Slug            string
	Content         string
	MetaDescription string
	IsPublished     bool
	CreatedBy       uint
}

// NewPageService creates a PageService instance.
func NewPageService(gdb *gorm.DB) *PageService {
	return &PageService{db: gdb}
}

// ListAll returns the whole page collection for the admin table.
func (s *PageService) ListAll() ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// ListPublished returns published pages ordered by created time descending.
func (s *PageService) ListPublished() ([]db.Page, error) {
	var pages []db.Page
	if err := s.db.Where("is_published = ?", true).Order("created_at desc").Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

// Get fetches a page by id.
func (s *PageService) Get(id uint) (*db.Page, error) {
	var page db.Page
	if err := s.db.First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}
	return &page, nil
}

// GetPublishedBySlug resolves a slug to exactly one published page.
// Zero rows and multiple rows both resolve to ErrPageNotFound.
func (s *PageService) GetPublishedBySlug(slug string) (*db.Page, error) {
	var pages []db.Page
	if err := s.db.Where("slug = ? AND is_published = ?", strings.TrimSpace(slug), true).
		Limit(2).Find(&pages).Error; err != nil {
		return nil, err
	}
	if len(pages) != 1 {
		return nil, ErrPageNotFound
	}
	return &pages[0], nil
}

// Create validates the input and inserts a new page record.
func (s *PageService) Create(input PageInput) (*db.Page, error) {
	title, slug, err := normalizeRequired(input)
	if err != nil {
		return nil, err
	}

	taken, err := s.slugTaken(slug, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	page := db.Page{
		Title:           title,
		Slug:            slug,
		Content:         input.Content,
		MetaDescription: strings.TrimSpace(input.MetaDescription),
		IsPublished:     input.IsPublished,
		CreatedBy:       input.CreatedBy,
	}
	if err := s.db.Create(&page).Error; err != nil {
		return nil, err
	}
	return &page, nil
}

// Update rewrites the editable fields of an existing page.
// The id and created_by fields stay untouched.
func (s *PageService) Update(id uint, input PageInput) (*db.Page, error) {
	title, slug, err := normalizeRequired(input)
	if err != nil {
		return nil, err
	}

	page, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	taken, err := s.slugTaken(slug, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	page.Title = title
	page.Slug = slug
	page.Content = input.Content
	page.MetaDescription = strings.TrimSpace(input.MetaDescription)
	page.IsPublished = input.IsPublished

	if err := s.db.Save(page).Error; err != nil {
		return nil, err
	}
	return page, nil
}

// Delete removes a page by id. The row is removed outright so its slug
// becomes available again; the slug column carries a unique index.
func (s *PageService) Delete(id uint) error {
	result := s.db.Unscoped().Delete(&db.Page{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPageNotFound
	}
	return nil
}

// slugTaken 检查 slug 是否已被其它页面占用。
func (s *PageService) slugTaken(slug string, excludeID uint) (bool, error) {
	var count int64
	query := s.db.Model(&db.Page{}).Where("slug = ?", slug)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func normalizeRequired(input PageInput) (title, slug string, err error) {
	title = strings.TrimSpace(input.Title)
	if title == "" {
		return "", "", ErrTitleRequired
	}
	slug = strings.TrimSpace(input.Slug)
	if slug == "" {
		return "", "", ErrSlugRequired
	}
	return title, slug, nil
}
