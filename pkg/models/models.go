package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BuildStatus is the persisted state of an agent build run
type BuildStatus string

const (
	StatusNone      BuildStatus = ""
	StatusHTML      BuildStatus = "html_agent"
	StatusCSS       BuildStatus = "css_agent"
	StatusJS        BuildStatus = "js_agent"
	StatusReview    BuildStatus = "review_agent"
	StatusPublish   BuildStatus = "publish_agent"
	StatusCompleted BuildStatus = "completed"
	// StatusFailed is never written to the database. A failed run leaves the
	// status of the step it stopped in.
	StatusFailed BuildStatus = "failed"
)

// AgentMessage is one entry of a project's append-only build log
type AgentMessage struct {
	Agent     string    `json:"agent"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Project is a user's HTML/CSS/JS project. Generated subpages are projects too,
// linked to their parent through ParentProjectID.
type Project struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Identity and ownership
	UserID      string  `json:"user_id" gorm:"index;not null;size:64"`
	ProjectName string  `json:"project_name" gorm:"not null"`
	CustomURL   *string `json:"custom_url,omitempty" gorm:"uniqueIndex;size:128"`

	// Code
	HTMLCode string `json:"html_code" gorm:"type:text"`
	CSSCode  string `json:"css_code" gorm:"type:text"`
	JSCode   string `json:"js_code" gorm:"type:text"`

	// Agent build state
	AIAgentsIdea     string         `json:"ai_agents_idea" gorm:"type:text"`
	AIAgentsStatus   BuildStatus    `json:"ai_agents_status" gorm:"size:32"`
	AIAgentsProgress int            `json:"ai_agents_progress"`
	AgentMessages    []AgentMessage `json:"agent_messages" gorm:"serializer:json;type:text"`

	// Publication
	IsPublished     bool `json:"is_published"`
	ShowInCommunity bool `json:"show_in_community"`

	// Subpage linkage
	ParentProjectID *string `json:"parent_project_id,omitempty" gorm:"size:36;uniqueIndex:idx_parent_route"`
	IsSubpage       bool    `json:"is_subpage" gorm:"index"`
	SubpageRoute    *string `json:"subpage_route,omitempty" gorm:"size:255;uniqueIndex:idx_parent_route"`

	// Community
	ForkedFrom *string `json:"forked_from,omitempty" gorm:"size:36"`
	LikesCount int     `json:"likes_count"`
	ViewCount  int     `json:"view_count"`
}

// BeforeCreate assigns a UUID when the caller did not choose one
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// KeyRotation tracks the round-robin position in a provider's credential pool
type KeyRotation struct {
	ID               uint      `json:"id" gorm:"primarykey"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ServiceName      string    `json:"service_name" gorm:"uniqueIndex;not null;size:64"`
	CurrentKeyIndex  int       `json:"current_key_index" gorm:"not null"`
	LastRotationTime time.Time `json:"last_rotation_time"`
}

func (KeyRotation) TableName() string { return "api_key_rotation" }

// ProjectLike records that a user liked a project
type ProjectLike struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	CreatedAt time.Time `json:"created_at"`
	ProjectID string    `json:"project_id" gorm:"uniqueIndex:idx_like_pair;size:36;not null"`
	UserID    string    `json:"user_id" gorm:"uniqueIndex:idx_like_pair;size:64;not null"`
}

// Article is a post written by a user. Published articles appear on the
// home page, newest first.
type Article struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorID string `json:"author_id" gorm:"index;not null;size:64"`
	Title    string `json:"title" gorm:"not null"`
	Content  string `json:"content" gorm:"type:text;not null"`
	Excerpt  string `json:"excerpt" gorm:"type:text"`
	Slug     string `json:"slug" gorm:"uniqueIndex;not null;size:160"`

	Published bool `json:"published" gorm:"index"`
	Featured  bool `json:"featured"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
