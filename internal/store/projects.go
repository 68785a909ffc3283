// Package store persists projects and credential rotation state through GORM.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeplay/pkg/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record was modified concurrently")
)

const maxListLimit = 200

// Fields is a partial update keyed by column name
type Fields map[string]interface{}

// ProjectStore reads and writes project rows. It offers no cross-call
// transactions: concurrent writers to the same row are last-writer-wins.
type ProjectStore struct {
	db *gorm.DB
}

func NewProjectStore(db *gorm.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

func (s *ProjectStore) Get(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *ProjectStore) Create(ctx context.Context, p *models.Project) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Update applies a partial update. agent_messages must go through AppendMessage.
func (s *ProjectStore) Update(ctx context.Context, id string, fields Fields) error {
	res := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Updates(map[string]interface{}(fields))
	if res.Error != nil {
		return fmt.Errorf("update project %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIfUnchanged applies fields only when the row's updated_at still equals
// expected. Timestamps compare at microsecond precision.
func (s *ProjectStore) UpdateIfUnchanged(ctx context.Context, id string, expected time.Time, fields Fields) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Project
		if err := tx.Select("id", "updated_at").Where("id = ?", id).First(&current).Error; err != nil {
			return translate(err)
		}
		if !current.UpdatedAt.Truncate(time.Microsecond).Equal(expected.Truncate(time.Microsecond)) {
			return ErrConflict
		}
		res := tx.Model(&models.Project{}).
			Where("id = ? AND updated_at = ?", id, current.UpdatedAt).
			Updates(map[string]interface{}(fields))
		if res.Error != nil {
			return fmt.Errorf("update project %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return nil
	})
}

// AppendMessage reads the log, appends msg and writes the whole log back.
// Two concurrent appends can lose one entry.
func (s *ProjectStore) AppendMessage(ctx context.Context, id string, msg models.AgentMessage) error {
	var p models.Project
	if err := s.db.WithContext(ctx).Select("id", "agent_messages").Where("id = ?", id).First(&p).Error; err != nil {
		return translate(err)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	p.AgentMessages = append(p.AgentMessages, msg)

	err := s.db.WithContext(ctx).Model(&models.Project{ID: id}).
		Select("AgentMessages").
		Updates(&models.Project{AgentMessages: p.AgentMessages}).Error
	if err != nil {
		return fmt.Errorf("append message to %s: %w", id, err)
	}
	return nil
}

// InsertMany writes all rows in one batch statement
func (s *ProjectStore) InsertMany(ctx context.Context, rows []*models.Project) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert %d projects: %w", len(rows), err)
	}
	return nil
}

// SubpageRoutes lists routes already materialized under parentID
func (s *ProjectStore) SubpageRoutes(ctx context.Context, parentID string) ([]string, error) {
	var routes []string
	err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("parent_project_id = ? AND is_subpage = ?", parentID, true).
		Pluck("subpage_route", &routes).Error
	if err != nil {
		return nil, fmt.Errorf("list subpage routes: %w", err)
	}
	return routes, nil
}

func (s *ProjectStore) ListByOwner(ctx context.Context, userID string) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// ListCommunity returns published top-level projects opted into the community feed
func (s *ProjectStore) ListCommunity(ctx context.Context, limit, offset int) ([]models.Project, error) {
	if limit <= 0 {
		limit = 24
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	var projects []models.Project
	err := s.db.WithContext(ctx).
		Where("is_published = ? AND show_in_community = ? AND is_subpage = ?", true, true, false).
		Order("likes_count DESC").Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, fmt.Errorf("list community: %w", err)
	}
	return projects, nil
}

// Delete removes a project together with its subpages and likes
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ?", id).Delete(&models.Project{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("parent_project_id = ?", id).Delete(&models.Project{}).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ?", id).Delete(&models.ProjectLike{}).Error
	})
}

// FindPublished resolves a public identifier. 36-character identifiers are
// project ids, anything else is a custom URL slug.
func (s *ProjectStore) FindPublished(ctx context.Context, identifier string) (*models.Project, error) {
	q := s.db.WithContext(ctx).Where("is_published = ?", true)
	if len(identifier) == 36 {
		q = q.Where("id = ?", identifier)
	} else {
		q = q.Where("custom_url = ?", identifier)
	}
	var p models.Project
	if err := q.First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// FindPublishedSubpage looks up a published subpage of parentID by route
func (s *ProjectStore) FindPublishedSubpage(ctx context.Context, parentID, route string) (*models.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).
		Where("parent_project_id = ? AND subpage_route = ? AND is_published = ?", parentID, route, true).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// CustomURLTaken reports whether another project already uses slug
func (s *ProjectStore) CustomURLTaken(ctx context.Context, slug, exceptID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Project{}).
		Where("custom_url = ? AND id <> ?", slug, exceptID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check custom url: %w", err)
	}
	return n > 0, nil
}

func (s *ProjectStore) IncrementViews(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&models.Project{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

// Like records a like once per user. It reports whether a new like was stored.
func (s *ProjectStore) Like(ctx context.Context, projectID, userID string) (bool, error) {
	created := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ProjectLike{ProjectID: projectID, UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Model(&models.Project{}).Where("id = ?", projectID).
			UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error
	})
	return created, err
}

// Unlike removes a like. It reports whether one existed.
func (s *ProjectStore) Unlike(ctx context.Context, projectID, userID string) (bool, error) {
	removed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("project_id = ? AND user_id = ?", projectID, userID).Delete(&models.ProjectLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Model(&models.Project{}).Where("id = ? AND likes_count > 0", projectID).
			UpdateColumn("likes_count", gorm.Expr("likes_count - ?", 1)).Error
	})
	return removed, err
}

// Fork copies the code of src into a new unpublished project owned by userID
func (s *ProjectStore) Fork(ctx context.Context, src *models.Project, userID string) (*models.Project, error) {
	forkedFrom := src.ID
	fork := &models.Project{
		UserID:      userID,
		ProjectName: src.ProjectName + " (fork)",
		HTMLCode:    src.HTMLCode,
		CSSCode:     src.CSSCode,
		JSCode:      src.JSCode,
		ForkedFrom:  &forkedFrom,
	}
	if err := s.Create(ctx, fork); err != nil {
		return nil, err
	}
	return fork, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
