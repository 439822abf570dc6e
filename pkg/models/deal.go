package models

import (
	"time"

	"github.com/google/uuid"
)

// Deal is a sales opportunity moving through the funnel. The AI fields are
// its annotation, re-derived whenever the stage changes.
type Deal struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"lead_id"`
	Title      string    `json:"title"`
	Amount     float64   `json:"amount"`
	Stage      string    `json:"stage"`
	CloseDate  time.Time `json:"close_date"`
	LastActive time.Time `json:"last_active"`

	AIPriority       *string  `json:"ai_priority,omitempty"`
	AINextAction     *string  `json:"ai_next_action,omitempty"`
	AIStalenessScore *float64 `json:"ai_staleness_score,omitempty"`
	AIConfidence     *float64 `json:"ai_confidence,omitempty"`

	OwnerID   uuid.UUID `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Deal stages.
const (
	StageQualification = "qualification"
	StageProposal      = "proposal"
	StageNegotiation   = "negotiation"
	StageClosedWon     = "closed_won"
	StageClosedLost    = "closed_lost"
)

// ValidDealStages contains all valid deal stage values.
var ValidDealStages = []string{
	StageQualification,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// IsValidDealStage checks if the given stage is valid.
func IsValidDealStage(s string) bool {
	for _, v := range ValidDealStages {
		if v == s {
			return true
		}
	}
	return false
}

// IsOpenStage reports whether a deal in this stage still counts toward the
// open-pipeline forecast.
func IsOpenStage(s string) bool {
	return s != StageClosedWon && s != StageClosedLost
}

// Deal priorities.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// DealPatch carries a partial update. Nil fields are left untouched.
// A patch that changes Stage triggers re-annotation and bumps LastActive.
type DealPatch struct {
	Title     *string    `json:"title,omitempty"`
	Amount    *float64   `json:"amount,omitempty"`
	Stage     *string    `json:"stage,omitempty"`
	CloseDate *time.Time `json:"close_date,omitempty"`
}

// DealAnnotation is the AI-derived priority tuple written back onto a deal.
type DealAnnotation struct {
	Priority       string  `json:"priority"`
	NextAction     string  `json:"next_action"`
	StalenessScore float64 `json:"staleness_score"`
	Confidence     float64 `json:"confidence"`
}
