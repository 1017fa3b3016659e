package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobState string

const (
	StateCreated   JobState = "created"
	StateQueued    JobState = "queued"
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

type Provider string

const (
	ProviderProfileNetwork      Provider = "profile-network"
	ProviderProfessionalNetwork Provider = "professional-network"
	ProviderPostSearch          Provider = "post-search"
	ProviderMicroBlog           Provider = "micro-blog"
)

type SourceType string

const (
	SourceHashtag   SourceType = "hashtag"
	SourceFollowers SourceType = "followers"
	SourceFollowing SourceType = "following"
	SourceKeyword   SourceType = "keyword"
)

// JSON type for PostgreSQL compatibility
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON", value)
	}

	if len(bytes) == 0 {
		*j = make(map[string]interface{})
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// StringSlice type for PostgreSQL JSON arrays
type StringSlice []string

func (ss StringSlice) Value() (driver.Value, error) {
	if ss == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(ss)
}

func (ss *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*ss = []string{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringSlice", value)
	}

	if len(bytes) == 0 {
		*ss = []string{}
		return nil
	}

	return json.Unmarshal(bytes, ss)
}

// ExtractionJob is one user request against an external extraction provider,
// tracked through its asynchronous lifecycle.
type ExtractionJob struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	OwnerUserID       uuid.UUID  `json:"owner_user_id" gorm:"type:uuid;not null;index"`
	Provider          Provider   `json:"provider" gorm:"type:varchar(32);not null;index"`
	SourceType        SourceType `json:"source_type" gorm:"type:varchar(16);not null"`
	Target            string     `json:"target" gorm:"type:text;not null"`
	MaxLeads          int        `json:"max_leads" gorm:"not null;check:max_leads > 0"`
	State             JobState   `json:"state" gorm:"type:varchar(16);not null;default:'created';index"`
	ProviderJobHandle string     `json:"provider_job_handle,omitempty" gorm:"type:text"`
	ScrapedCount      int        `json:"scraped_count" gorm:"default:0"`
	ResultRef         string     `json:"result_ref,omitempty" gorm:"type:text"`
	Error             string     `json:"error,omitempty" gorm:"type:text"`
	Metadata          JSON       `json:"metadata" gorm:"type:jsonb;default:'{}'"`
	CreatedAt         time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty" gorm:"index"`
}

func (ExtractionJob) TableName() string {
	return "extraction_jobs"
}

func (j *ExtractionJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := time.Now()
	j.CreatedAt = now
	j.UpdatedAt = now

	if j.Metadata == nil {
		j.Metadata = JSON{}
	}

	return nil
}

func (j *ExtractionJob) BeforeUpdate(tx *gorm.DB) error {
	j.UpdatedAt = time.Now()
	return nil
}

// IsTerminal returns true when no further provider polling can change the job.
func (j *ExtractionJob) IsTerminal() bool {
	return j.State == StateSucceeded || j.State == StateFailed
}

// stateRank orders the lifecycle so transitions can only move forward.
var stateRank = map[JobState]int{
	StateCreated:   0,
	StateQueued:    1,
	StateRunning:   2,
	StateSucceeded: 3,
	StateFailed:    3,
}

// CanTransitionTo reports whether moving to next respects the forward-only
// lifecycle. Terminal states never transition again.
func (j *ExtractionJob) CanTransitionTo(next JobState) bool {
	if j.IsTerminal() {
		return false
	}
	return stateRank[next] > stateRank[j.State]
}

// SetState updates the state with the appropriate timestamps. Regressions are
// ignored so a late poll result can never rewind a terminal job.
func (j *ExtractionJob) SetState(state JobState) {
	if !j.CanTransitionTo(state) {
		return
	}
	j.State = state
	j.UpdatedAt = time.Now()

	if j.IsTerminal() && j.CompletedAt == nil {
		now := time.Now()
		j.CompletedAt = &now
	}
}

// SubmitRequest is the payload accepted by the submission gateway.
// @Description Request to create a new extraction job
type SubmitRequest struct {
	Provider      Provider    `json:"provider" binding:"required"`
	SourceType    SourceType  `json:"source_type" binding:"required"`
	Target        string      `json:"target" binding:"required"`
	MaxLeads      int         `json:"max_leads" binding:"required"`
	Domains       StringSlice `json:"domains,omitempty"`
	Country       string      `json:"country,omitempty"`
	Language      string      `json:"language,omitempty"`
	TermsAccepted bool        `json:"terms_accepted"`
} // @name SubmitRequest

// JobResponse is the API view of an extraction job.
// @Description Full details of an extraction job
type JobResponse struct {
	ID                uuid.UUID  `json:"id"`
	OwnerUserID       uuid.UUID  `json:"owner_user_id"`
	Provider          Provider   `json:"provider"`
	SourceType        SourceType `json:"source_type"`
	Target            string     `json:"target"`
	MaxLeads          int        `json:"max_leads"`
	State             JobState   `json:"state"`
	ProviderJobHandle string     `json:"provider_job_handle,omitempty"`
	ScrapedCount      int        `json:"scraped_count"`
	ResultRef         string     `json:"result_ref,omitempty"`
	Error             string     `json:"error,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
} // @name JobResponse

func (j *ExtractionJob) ToResponse() *JobResponse {
	return &JobResponse{
		ID:                j.ID,
		OwnerUserID:       j.OwnerUserID,
		Provider:          j.Provider,
		SourceType:        j.SourceType,
		Target:            j.Target,
		MaxLeads:          j.MaxLeads,
		State:             j.State,
		ProviderJobHandle: j.ProviderJobHandle,
		ScrapedCount:      j.ScrapedCount,
		ResultRef:         j.ResultRef,
		Error:             j.Error,
		CreatedAt:         j.CreatedAt,
		UpdatedAt:         j.UpdatedAt,
		CompletedAt:       j.CompletedAt,
	}
}

// JobListResponse is a paginated list of jobs.
// @Description Paginated list of extraction jobs
type JobListResponse struct {
	Jobs     []*JobResponse `json:"jobs"`
	Count    int            `json:"count" example:"25"`
	Page     int            `json:"page,omitempty" example:"1"`
	PageSize int            `json:"page_size,omitempty" example:"25"`
} // @name JobListResponse

// ValidProvider reports whether p is one of the supported vendors.
func ValidProvider(p Provider) bool {
	switch p {
	case ProviderProfileNetwork, ProviderProfessionalNetwork, ProviderPostSearch, ProviderMicroBlog:
		return true
	}
	return false
}

// ValidSourceType reports whether s is a known collection type.
func ValidSourceType(s SourceType) bool {
	switch s {
	case SourceHashtag, SourceFollowers, SourceFollowing, SourceKeyword:
		return true
	}
	return false
}
