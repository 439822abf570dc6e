package services

import (
	"context"
	"fmt"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/llm"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
	"github.com/smartbizhq/smartbiz-engine/pkg/pipeline"
	"github.com/smartbizhq/smartbiz-engine/pkg/prompts"
	"github.com/smartbizhq/smartbiz-engine/pkg/repositories"
)

// requireActor is the authentication-only gate used by listing reads. The
// auth middleware normally guarantees an actor; services still fail closed.
func requireActor(actor *models.User) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	return nil
}

// respond closes out a trace that has reached StageDataFetched on the
// non-AI path: nothing further to commit, straight to the response.
func respond(trace *pipeline.Trace) {
	trace.Advance(pipeline.StagePersisted)
	trace.Advance(pipeline.StageResponded)
}

// getArtifact loads one artifact and checks its kind. Wrong-kind lookups
// read as missing so document ids stay opaque per collection.
func getArtifact(ctx context.Context, repo repositories.ArtifactRepository, id, kind string) (*models.Artifact, error) {
	artifact, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if artifact.Kind != kind {
		return nil, fmt.Errorf("no %s with id %s: %w", kind, id, apperrors.ErrNotFound)
	}
	return artifact, nil
}

// completeText assembles the prompt for kind and runs a free-form
// completion, walking the trace through the AI stages. The returned error is
// unwrapped; call sites add their own context.
func completeText(ctx context.Context, ai llm.Completer, trace *pipeline.Trace, kind prompts.Kind, params any) (string, error) {
	prompt, err := prompts.Assemble(kind, params)
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StagePromptAssembled)

	completion, err := ai.Complete(ctx, llm.CompletionRequest{
		System: prompts.SystemMessage(kind),
		Prompt: prompt,
	})
	if err != nil {
		trace.Fail(err)
		return "", err
	}
	trace.Advance(pipeline.StageAIGenerated)
	return completion.Text, nil
}

// completeJSON is completeText for schema-bound calls: the reply must
// validate against schema and is unmarshaled into out when out is non-nil.
func completeJSON(ctx context.Context, ai llm.Completer, trace *pipeline.Trace, kind prompts.Kind, params any, schema string, out any) (*llm.Completion, error) {
	prompt, err := prompts.Assemble(kind, params)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StagePromptAssembled)

	completion, err := ai.CompleteJSON(ctx, llm.CompletionRequest{
		System:   prompts.SystemMessage(kind),
		Prompt:   prompt,
		JSONOnly: true,
	}, schema, out)
	if err != nil {
		trace.Fail(err)
		return nil, err
	}
	trace.Advance(pipeline.StageAIGenerated)
	return completion, nil
}
