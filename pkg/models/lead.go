package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a CRM prospect. The AI fields form its annotation: they are
// overwritten wholesale on every re-scoring, last write wins.
type Lead struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Company  string    `json:"company"`
	Industry string    `json:"industry"`
	Status   string    `json:"status"`
	Source   string    `json:"source"`
	Notes    string    `json:"notes"`

	AIScore      *int     `json:"ai_score,omitempty"`
	AISegment    *string  `json:"ai_segment,omitempty"`
	AINextAction *string  `json:"ai_next_action,omitempty"`
	AIConfidence *float64 `json:"ai_confidence,omitempty"`

	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Lead statuses.
const (
	LeadNew       = "new"
	LeadContacted = "contacted"
	LeadQualified = "qualified"
	LeadConverted = "converted"
	LeadLost      = "lost"
)

// Lead sources.
const (
	SourceWebsite       = "website"
	SourceReferral      = "referral"
	SourceSocialMedia   = "social_media"
	SourceEmailCampaign = "email_campaign"
	SourceColdCall      = "cold_call"
	SourceEvent         = "event"
	SourceOther         = "other"
)

// ValidLeadStatuses contains all valid lead status values.
var ValidLeadStatuses = []string{LeadNew, LeadContacted, LeadQualified, LeadConverted, LeadLost}

// ValidLeadSources contains all valid lead source values.
var ValidLeadSources = []string{
	SourceWebsite,
	SourceReferral,
	SourceSocialMedia,
	SourceEmailCampaign,
	SourceColdCall,
	SourceEvent,
	SourceOther,
}

// IsValidLeadStatus checks if the given status is valid.
func IsValidLeadStatus(s string) bool {
	for _, v := range ValidLeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsValidLeadSource checks if the given source is valid.
func IsValidLeadSource(s string) bool {
	for _, v := range ValidLeadSources {
		if v == s {
			return true
		}
	}
	return false
}

// LeadPatch carries a partial update. Nil fields are left untouched.
// A patch that changes Company or Industry triggers a re-score.
type LeadPatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Company  *string `json:"company,omitempty"`
	Industry *string `json:"industry,omitempty"`
	Status   *string `json:"status,omitempty"`
	Source   *string `json:"source,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// LeadAnnotation is the AI-derived score tuple written back onto a lead.
type LeadAnnotation struct {
	Score      int     `json:"score"`
	Segment    string  `json:"segment"`
	NextAction string  `json:"next_action"`
	Confidence float64 `json:"confidence"`
}

// Lead segments.
const (
	SegmentHot  = "hot"
	SegmentWarm = "warm"
	SegmentCold = "cold"
)
