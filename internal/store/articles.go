package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"codeplay/pkg/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	maxSlugRunes       = 80
	slugSuffixAttempts = 20
)

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}\s-]+`)
	slugSeparate = regexp.MustCompile(`[\s-]+`)
)

// Slugify lowercases title and joins its words with hyphens. Letters of any
// script are kept so Arabic titles produce Arabic slugs.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "")
	s = slugSeparate.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if r := []rune(s); len(r) > maxSlugRunes {
		s = strings.TrimRight(string(r[:maxSlugRunes]), "-")
	}
	return s
}

// ArticleStore reads and writes articles
type ArticleStore struct {
	db *gorm.DB
}

func NewArticleStore(db *gorm.DB) *ArticleStore {
	return &ArticleStore{db: db}
}

func (s *ArticleStore) Get(ctx context.Context, id string) (*models.Article, error) {
	var a models.Article
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// GetPublishedBySlug returns a published article. Drafts are not found.
func (s *ArticleStore) GetPublishedBySlug(ctx context.Context, slug string) (*models.Article, error) {
	var a models.Article
	err := s.db.WithContext(ctx).
		Where("slug = ? AND published = ?", slug, true).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ListByAuthor returns every article of authorID, drafts included
func (s *ArticleStore) ListByAuthor(ctx context.Context, authorID string) ([]models.Article, error) {
	var articles []models.Article
	err := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC").
		Find(&articles).Error
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	return articles, nil
}

// ListPublished returns the newest published articles
func (s *ArticleStore) ListPublished(ctx context.Context, featuredOnly bool, limit int) ([]models.Article, error) {
	if limit <= 0 {
		limit = 3
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	q := s.db.WithContext(ctx).Where("published = ?", true)
	if featuredOnly {
		q = q.Where("featured = ?", true)
	}
	var articles []models.Article
	if err := q.Order("created_at DESC").Limit(limit).Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("list published articles: %w", err)
	}
	return articles, nil
}

// SlugTaken reports whether an article other than exceptID uses slug
func (s *ArticleStore) SlugTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Article{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check article slug: %w", err)
	}
	return n > 0, nil
}

// Create stores a. An empty slug is derived from the title and suffixed
// with -2, -3 and so on until it is free. A caller-chosen slug that is taken
// returns ErrConflict.
func (s *ArticleStore) Create(ctx context.Context, a *models.Article) error {
	if a.Slug == "" {
		slug, err := s.freeSlug(ctx, Slugify(a.Title))
		if err != nil {
			return err
		}
		a.Slug = slug
	} else {
		taken, err := s.SlugTaken(ctx, a.Slug, "")
		if err != nil {
			return err
		}
		if taken {
			return ErrConflict
		}
	}
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (s *ArticleStore) freeSlug(ctx context.Context, base string) (string, error) {
	if base == "" {
		base = "article"
	}
	candidate := base
	for i := 2; i <= slugSuffixAttempts+1; i++ {
		taken, err := s.SlugTaken(ctx, candidate, "")
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return base + "-" + uuid.New().String()[:8], nil
}

func (s *ArticleStore) Update(ctx context.Context, id string, fields Fields) error {
	res := s.db.WithContext(ctx).Model(&models.Article{}).Where("id = ?", id).Updates(map[string]interface{}(fields))
	if res.Error != nil {
		return fmt.Errorf("update article %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ArticleStore) Delete(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{})
	if res.Error != nil {
		return fmt.Errorf("delete article %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
