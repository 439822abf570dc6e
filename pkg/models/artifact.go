package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Artifact is a semi-structured AI-produced document held in the document
// store: generated content, campaigns, pipelines, proposals, and workflow
// execution records. Artifacts are immutable after insert except for the
// explicit status transitions below.
type Artifact struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Status    string          `json:"status,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Params    json.RawMessage `json:"params,omitempty"`
	RefID     string          `json:"ref_id,omitempty"` // owning record id, e.g. workflow id for executions
	CreatedBy uuid.UUID       `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
}

// Artifact kinds.
const (
	ArtifactContent   = "content"
	ArtifactCampaign  = "campaign"
	ArtifactPipeline  = "pipeline"
	ArtifactProposal  = "proposal"
	ArtifactExecution = "workflow_execution"
)

// ValidArtifactKinds contains all valid artifact kind values.
var ValidArtifactKinds = []string{
	ArtifactContent,
	ArtifactCampaign,
	ArtifactPipeline,
	ArtifactProposal,
	ArtifactExecution,
}

// Proposal statuses.
const (
	ProposalDraft    = "draft"
	ProposalSent     = "sent"
	ProposalAccepted = "accepted"
	ProposalRejected = "rejected"
)

// CampaignPlanning is the status every campaign is created with. Campaigns
// have no transition table: the status never moves.
const CampaignPlanning = "planning"

// Execution statuses.
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// artifactTransitions holds the legal status transitions per kind.
// Kinds without an entry have no mutable status.
var artifactTransitions = map[string]map[string][]string{
	ArtifactProposal: {
		ProposalDraft: {ProposalSent},
		ProposalSent:  {ProposalAccepted, ProposalRejected},
	},
	ArtifactExecution: {
		ExecutionRunning: {ExecutionCompleted, ExecutionFailed},
	},
}

// CanTransition reports whether an artifact of the given kind may move from
// one status to another.
func CanTransition(kind, from, to string) bool {
	targets, ok := artifactTransitions[kind][from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}
