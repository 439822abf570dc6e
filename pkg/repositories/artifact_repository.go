package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// ArtifactRepository is the document-store access path. Artifacts live in
// Redis as JSON blobs with per-kind insertion-order indexes. They are
// immutable after insert except for status patches.
type ArtifactRepository interface {
	Insert(ctx context.Context, artifact *models.Artifact) error
	GetByID(ctx context.Context, id string) (*models.Artifact, error)
	// Find returns artifacts of one kind in insertion order. A non-empty
	// refID narrows to artifacts owned by that record.
	Find(ctx context.Context, kind, refID string, skip, limit int) ([]*models.Artifact, int, error)
	// PatchStatus moves an artifact through its status machine. Illegal
	// transitions fail with ErrValidation.
	PatchStatus(ctx context.Context, id, status string) (*models.Artifact, error)
	// PatchExecution settles a workflow execution record: status transition
	// plus the final payload (outputs, completion time, error) in one write.
	// Non-execution artifacts fail with ErrValidation.
	PatchExecution(ctx context.Context, id, status string, payload json.RawMessage) (*models.Artifact, error)
}

type artifactRepository struct {
	client *redis.Client
}

// NewArtifactRepository creates a new artifact repository.
func NewArtifactRepository(client *redis.Client) ArtifactRepository {
	return &artifactRepository{client: client}
}

var _ ArtifactRepository = (*artifactRepository)(nil)

func artifactKey(id string) string {
	return "artifact:" + id
}

func kindIndexKey(kind string) string {
	return "artifacts:" + kind
}

func refIndexKey(kind, refID string) string {
	return "artifacts:" + kind + ":ref:" + refID
}

func (r *artifactRepository) Insert(ctx context.Context, artifact *models.Artifact) error {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("failed to marshal artifact: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, artifactKey(artifact.ID), data, 0)
		pipe.RPush(ctx, kindIndexKey(artifact.Kind), artifact.ID)
		if artifact.RefID != "" {
			pipe.RPush(ctx, refIndexKey(artifact.Kind, artifact.RefID), artifact.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to insert artifact: %w", err)
	}

	return nil
}

func (r *artifactRepository) GetByID(ctx context.Context, id string) (*models.Artifact, error) {
	data, err := r.client.Get(ctx, artifactKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	artifact := &models.Artifact{}
	if err := json.Unmarshal(data, artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact: %w", err)
	}

	return artifact, nil
}

func (r *artifactRepository) Find(ctx context.Context, kind, refID string, skip, limit int) ([]*models.Artifact, int, error) {
	skip, limit = normalizePageParams(skip, limit)

	indexKey := kindIndexKey(kind)
	if refID != "" {
		indexKey = refIndexKey(kind, refID)
	}

	total, err := r.client.LLen(ctx, indexKey).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count artifacts: %w", err)
	}

	ids, err := r.client.LRange(ctx, indexKey, int64(skip), int64(skip+limit-1)).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to page artifact index: %w", err)
	}

	if len(ids) == 0 {
		return nil, int(total), nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = artifactKey(id)
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load artifacts: %w", err)
	}

	artifacts := make([]*models.Artifact, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		artifact := &models.Artifact{}
		if err := json.Unmarshal([]byte(s), artifact); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal artifact: %w", err)
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, int(total), nil
}

func (r *artifactRepository) PatchStatus(ctx context.Context, id, status string) (*models.Artifact, error) {
	artifact, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(artifact.Kind, artifact.Status, status) {
		return nil, fmt.Errorf("%s cannot move from %q to %q: %w",
			artifact.Kind, artifact.Status, status, apperrors.ErrValidation)
	}

	artifact.Status = status

	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := r.client.Set(ctx, artifactKey(id), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to patch artifact status: %w", err)
	}

	return artifact, nil
}

func (r *artifactRepository) PatchExecution(ctx context.Context, id, status string, payload json.RawMessage) (*models.Artifact, error) {
	artifact, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if artifact.Kind != models.ArtifactExecution {
		return nil, fmt.Errorf("%s artifacts have no execution payload: %w",
			artifact.Kind, apperrors.ErrValidation)
	}
	if !models.CanTransition(artifact.Kind, artifact.Status, status) {
		return nil, fmt.Errorf("%s cannot move from %q to %q: %w",
			artifact.Kind, artifact.Status, status, apperrors.ErrValidation)
	}

	artifact.Status = status
	artifact.Payload = payload

	data, err := json.Marshal(artifact)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal artifact: %w", err)
	}

	if err := r.client.Set(ctx, artifactKey(id), data, 0).Err(); err != nil {
		return nil, fmt.Errorf("failed to patch execution record: %w", err)
	}

	return artifact, nil
}
