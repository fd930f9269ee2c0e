package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/repository"
)

const twoOptions = `{
  "architectures": [
    {
      "id": "cf-edge",
      "name": "Cloudflare edge",
      "summary": "Workers plus KV, lowest cost",
      "components": [
        {"id": "api", "kind": "cf_worker", "provider": "cloudflare", "name": "API worker", "config": {"routes": 1}},
        {"id": "cache", "kind": "cf_kv", "provider": "cloudflare", "name": "Cache", "config": {}}
      ]
    },
    {
      "id": "aws-serverless",
      "name": "AWS serverless",
      "summary": "Lambda and DynamoDB",
      "components": [
        {"id": "fn", "kind": "aws_lambda", "provider": "aws", "name": "Handler", "config": {"memoryMB": 512}}
      ]
    }
  ]
}`

// fakeModel 按脚本返回对话结果，并记录收到的请求
type fakeModel struct {
	mu       sync.Mutex
	replies  []llm.ChatResponse
	object   string
	chatErr  error
	objErr   error
	chats    []llm.ChatRequest
	prompts  []string
	loopCall *llm.ChatResponse // 非空时每次都返回该结果
}

func (f *fakeModel) Name() string { return "fake/test" }

func (f *fakeModel) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats = append(f.chats, req)
	if f.chatErr != nil {
		return llm.ChatResponse{}, f.chatErr
	}
	if f.loopCall != nil {
		return *f.loopCall, nil
	}
	if len(f.replies) == 0 {
		return llm.ChatResponse{Content: "done"}, nil
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

func (f *fakeModel) GenerateObject(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, req.Prompt)
	if f.objErr != nil {
		return nil, f.objErr
	}
	return json.RawMessage(f.object), nil
}

type fakeResolver struct{ model llm.Model }

func (r fakeResolver) Resolve(context.Context, domain.ModelRef) (llm.Model, error) {
	return r.model, nil
}

type fixture struct {
	model    *fakeModel
	tools    *ToolService
	sessions *SessionService
	chat     *ChatService
}

func newFixture(t *testing.T, enforce bool) *fixture {
	t.Helper()
	log := logger.NewNop()
	model := &fakeModel{object: twoOptions}
	resolver := fakeResolver{model: model}

	tools := NewToolService(
		domain.DefaultWorkload(),
		NewArchitectureGenerator(1024, nil, log),
		resolver,
		NewPhaseTracker(enforce, nil, log),
		nil,
		log,
	)
	repo, err := repository.NewMemorySessionRepository(16)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sessions := NewSessionService(repo, SessionDefaults{
		PreferredCloudProvider: domain.ProviderCloudflare,
		DefaultWorkload:        domain.DefaultWorkload(),
		Model:                  domain.ModelRef{Provider: "fake", Name: "test"},
	}, tools, log)

	return &fixture{
		model:    model,
		tools:    tools,
		sessions: sessions,
		chat:     NewChatService(sessions, resolver, 4, 1024, nil, log),
	}
}

func ptr[T any](v T) *T { return &v }

func TestResolveRequirements(t *testing.T) {
	defaults := domain.DefaultWorkload()

	t.Run("empty update returns defaults", func(t *testing.T) {
		assert.Equal(t, defaults, ResolveRequirements(domain.WorkloadUpdate{}, defaults))
	})

	t.Run("provided fields override", func(t *testing.T) {
		got := ResolveRequirements(domain.WorkloadUpdate{
			MonthlyRequests: ptr(int64(5_000_000)),
			DataResidency:   ptr(domain.ResidencyEU),
		}, defaults)

		want := defaults
		want.MonthlyRequests = 5_000_000
		want.DataResidency = domain.ResidencyEU
		assert.Equal(t, want, got)
	})

	t.Run("zero values are kept", func(t *testing.T) {
		got := ResolveRequirements(domain.WorkloadUpdate{
			Title:           ptr(""),
			MonthlyRequests: ptr(int64(0)),
		}, defaults)
		assert.Equal(t, "", got.Title)
		assert.Equal(t, int64(0), got.MonthlyRequests)
		assert.Equal(t, defaults.Description, got.Description)
	})
}

func TestShowDefaultWorkload(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	sess.DefaultWorkload.Title = "session default"
	before := sess.ProjectState.Clone()

	res, err := f.tools.ShowDefaultWorkload(context.Background(), sess)
	require.NoError(t, err)

	assert.Equal(t, "session default", res.Workload.Title)
	assert.Equal(t, showDefaultMessage, res.Message)
	assert.Equal(t, showDefaultQuestion, res.Question)
	assert.Equal(t, before, sess.ProjectState)
}

func TestUpdateWorkloadRequirements(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")

	res, err := f.tools.Invoke(context.Background(), sess, ToolUpdateWorkload,
		json.RawMessage(`{"monthlyRequests": 5000000, "dataResidency": "eu"}`))
	require.NoError(t, err)

	out := res.(*UpdateWorkloadResult)
	assert.Equal(t, int64(5_000_000), out.Requirements.MonthlyRequests)
	assert.Equal(t, domain.ResidencyEU, out.Requirements.DataResidency)
	assert.Equal(t, "basic website", out.Requirements.Title)

	require.NotNil(t, sess.ProjectState.Requirements)
	assert.Equal(t, out.Requirements, *sess.ProjectState.Requirements)
	assert.Equal(t, domain.PhaseGeneratingArchitectures, sess.ProjectState.Phase)
}

func TestUpdateResolvesAgainstProcessDefaults(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	sess.DefaultWorkload.Title = "session only"

	res, err := f.tools.UpdateWorkloadRequirements(context.Background(), sess, domain.WorkloadUpdate{
		Complexity: ptr(domain.ComplexityComplex),
	})
	require.NoError(t, err)
	assert.Equal(t, "basic website", res.Requirements.Title)
	assert.Equal(t, domain.ComplexityComplex, res.Requirements.Complexity)
}

func TestUpdateAcceptsNullsAndWholeFloats(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")

	res, err := f.tools.Invoke(context.Background(), sess, ToolUpdateWorkload,
		json.RawMessage(`{"title": null, "monthlyRequests": 20000.0}`))
	require.NoError(t, err)

	out := res.(*UpdateWorkloadResult)
	assert.Equal(t, "basic website", out.Requirements.Title)
	assert.Equal(t, int64(20000), out.Requirements.MonthlyRequests)
}

func TestUpdateRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"bad enum":         `{"dataResidency": "mars"}`,
		"negative":         `{"monthlyRequests": -1}`,
		"wrong type":       `{"title": 42}`,
		"not an object":    `[1, 2]`,
		"fractional count": `{"monthlyRequests": 1.5}`,
		"count overflow":   `{"monthlyRequests": 1e20}`,
		"count at 2^63":    `{"monthlyRequests": 9223372036854775807}`,
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false)
			sess := f.sessions.New("s1")
			before := sess.ProjectState.Clone()

			_, err := f.tools.Invoke(context.Background(), sess, ToolUpdateWorkload, json.RawMessage(args))

			var schemaErr *SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, ToolUpdateWorkload, schemaErr.Target)
			assert.Equal(t, before, sess.ProjectState)
		})
	}
}

func TestUpdateAcceptsLargeCount(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")

	res, err := f.tools.Invoke(context.Background(), sess, ToolUpdateWorkload, json.RawMessage(`{"monthlyRequests": 9007199254740992}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1)<<53, res.(*UpdateWorkloadResult).Requirements.MonthlyRequests)
}

func TestGenerateWithDefaults(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")

	res, err := f.tools.Invoke(context.Background(), sess, ToolGeneratePlans, nil)
	require.NoError(t, err)

	out := res.(*GeneratePlansResult)
	assert.Equal(t, 2, out.Count)
	assert.Len(t, out.Architectures, 2)
	assert.Equal(t, "cf-edge", out.Architectures[0].ID)
	assert.Equal(t, domain.KindCFWorker, out.Architectures[0].Components[0].Kind)

	require.NotNil(t, sess.ProjectState.Requirements)
	assert.Equal(t, domain.DefaultWorkload(), *sess.ProjectState.Requirements)
	assert.Equal(t, out.Architectures, sess.ProjectState.Architectures)
	assert.Equal(t, domain.PhaseAwaitingChoice, sess.ProjectState.Phase)

	require.Len(t, f.model.prompts, 1)
	assert.Contains(t, f.model.prompts[0], "basic website")
	assert.Contains(t, f.model.prompts[0], "Preferred cloud provider: cloudflare")
}

func TestSessionDefaultWorkloadIsUsedThroughout(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	sess.DefaultWorkload.Title = "saved before config change"
	ctx := context.Background()

	shown, err := f.tools.ShowDefaultWorkload(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "saved before config change", shown.Workload.Title)

	_, err = f.tools.GenerateArchitecturePlans(ctx, sess, true)
	require.NoError(t, err)
	require.NotNil(t, sess.ProjectState.Requirements)
	assert.Equal(t, shown.Workload, *sess.ProjectState.Requirements)
	assert.Contains(t, f.model.prompts[0], "saved before config change")

	updated, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{Complexity: ptr(domain.ComplexityComplex)})
	require.NoError(t, err)
	assert.Equal(t, "saved before config change", updated.Requirements.Title)
}

func TestGenerateDefaultIgnoresStoredRequirements(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	ctx := context.Background()

	_, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{Title: ptr("custom")})
	require.NoError(t, err)

	_, err = f.tools.GenerateArchitecturePlans(ctx, sess, true)
	require.NoError(t, err)
	assert.Equal(t, "basic website", sess.ProjectState.Requirements.Title)
}

func TestGenerateCustomUsesStoredRequirements(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	ctx := context.Background()

	_, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{Title: ptr("custom")})
	require.NoError(t, err)

	_, err = f.tools.GenerateArchitecturePlans(ctx, sess, false)
	require.NoError(t, err)
	assert.Equal(t, "custom", sess.ProjectState.Requirements.Title)
	assert.Contains(t, f.model.prompts[0], "custom")
}

func TestGenerateCustomWithoutRequirements(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	before := sess.ProjectState.Clone()

	_, err := f.tools.GenerateArchitecturePlans(context.Background(), sess, false)
	assert.ErrorIs(t, err, ErrMissingRequirements)
	assert.Equal(t, before, sess.ProjectState)
	assert.Empty(t, f.model.prompts)
}

func TestGenerateReplacesArchitectures(t *testing.T) {
	f := newFixture(t, false)
	sess := f.sessions.New("s1")
	ctx := context.Background()

	_, err := f.tools.GenerateArchitecturePlans(ctx, sess, true)
	require.NoError(t, err)

	f.model.object = `{"architectures": [{"id": "gcp", "name": "GCP", "summary": "Cloud Run", "components": []}]}`
	res, err := f.tools.GenerateArchitecturePlans(ctx, sess, true)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Count)
	require.Len(t, sess.ProjectState.Architectures, 1)
	assert.Equal(t, "gcp", sess.ProjectState.Architectures[0].ID)
}

func TestGenerateRejectsBadModelOutput(t *testing.T) {
	cases := map[string]string{
		"not json":         `sorry, I cannot do that`,
		"missing field":    `{"architectures": [{"id": "a", "name": "A", "components": []}]}`,
		"missing config":   `{"architectures": [{"id": "a", "name": "A", "summary": "s", "components": [{"id": "x", "kind": "cf_worker", "provider": "cloudflare", "name": "X"}]}]}`,
		"duplicate ids":    `{"architectures": [{"id": "a", "name": "A", "summary": "s", "components": [{"id": "x", "kind": "cf_worker", "provider": "cloudflare", "name": "X", "config": {}}, {"id": "x", "kind": "cf_kv", "provider": "cloudflare", "name": "Y", "config": {}}]}]}`,
		"no architectures": `{}`,
	}
	for name, object := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t, false)
			f.model.object = object
			sess := f.sessions.New("s1")
			before := sess.ProjectState.Clone()

			_, err := f.tools.GenerateArchitecturePlans(context.Background(), sess, true)

			var schemaErr *SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, "architectures", schemaErr.Target)
			assert.Equal(t, before, sess.ProjectState)
		})
	}
}

func TestGenerateAcceptsCodeFence(t *testing.T) {
	f := newFixture(t, false)
	f.model.object = "```json\n" + twoOptions + "\n```"
	sess := f.sessions.New("s1")

	res, err := f.tools.GenerateArchitecturePlans(context.Background(), sess, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
}

func TestGenerateModelFailureLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t, false)
	f.model.objErr = errors.New("upstream 503")
	sess := f.sessions.New("s1")
	before := sess.ProjectState.Clone()

	_, err := f.tools.GenerateArchitecturePlans(context.Background(), sess, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream 503")
	assert.Equal(t, before, sess.ProjectState)
}

func TestInvokeWithoutSession(t *testing.T) {
	f := newFixture(t, false)
	for _, name := range ToolNames {
		_, err := f.tools.Invoke(context.Background(), nil, name, nil)
		assert.ErrorIs(t, err, ErrNoContext, name)
	}
	_, err := f.sessions.InvokeTool(context.Background(), "", ToolShowDefaultWorkload, nil)
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestInvokeUnknownTool(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.tools.Invoke(context.Background(), f.sessions.New("s1"), "deployEverything", nil)

	var unknown *UnknownToolError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "deployEverything", unknown.Name)
}

func TestPhaseOrderEnforcement(t *testing.T) {
	ctx := context.Background()

	t.Run("permissive by default", func(t *testing.T) {
		f := newFixture(t, false)
		sess := f.sessions.New("s1")
		sess.ProjectState.Phase = domain.PhaseReadyForIaC
		_, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{})
		assert.NoError(t, err)
	})

	t.Run("strict rejects custom generate before requirements", func(t *testing.T) {
		f := newFixture(t, true)
		sess := f.sessions.New("s1")
		_, err := f.tools.GenerateArchitecturePlans(ctx, sess, false)

		var orderErr *PhaseOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Equal(t, domain.PhaseCollectingRequirements, orderErr.Phase)
	})

	t.Run("strict allows the normal flow", func(t *testing.T) {
		f := newFixture(t, true)
		sess := f.sessions.New("s1")
		_, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{Title: ptr("x")})
		require.NoError(t, err)
		_, err = f.tools.GenerateArchitecturePlans(ctx, sess, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PhaseAwaitingChoice, sess.ProjectState.Phase)
	})

	t.Run("strict freezes ready-for-iac", func(t *testing.T) {
		f := newFixture(t, true)
		sess := f.sessions.New("s1")
		sess.ProjectState.Phase = domain.PhaseReadyForIaC
		_, err := f.tools.UpdateWorkloadRequirements(ctx, sess, domain.WorkloadUpdate{})
		var orderErr *PhaseOrderError
		assert.ErrorAs(t, err, &orderErr)

		for _, useDefault := range []bool{true, false} {
			_, err = f.tools.GenerateArchitecturePlans(ctx, sess, useDefault)
			require.ErrorAs(t, err, &orderErr)
			assert.Equal(t, ToolGeneratePlans, orderErr.Tool)
		}
		assert.Empty(t, f.model.prompts)
		assert.Equal(t, domain.PhaseReadyForIaC, sess.ProjectState.Phase)
	})
}

func TestDefinitions(t *testing.T) {
	f := newFixture(t, false)
	defs := f.tools.Definitions()
	require.Len(t, defs, 3)
	for i, def := range defs {
		assert.Equal(t, ToolNames[i], def.Name)
		assert.NotEmpty(t, def.Description)
		require.NotNil(t, def.InputSchema)
		assert.Equal(t, "object", def.InputSchema.Type)
	}
}
