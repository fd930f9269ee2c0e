package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/repository"
)

func toolCall(id, name, args string) domain.ToolCall {
	return domain.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

func TestChatRunsToolLoop(t *testing.T) {
	f := newFixture(t, false)
	f.model.replies = []llm.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c1", ToolShowDefaultWorkload, `{}`)}},
		{ToolCalls: []domain.ToolCall{toolCall("c2", ToolGeneratePlans, `{"useDefaultWorkload": true}`)}},
		{Content: "Here are two options."},
	}
	ctx := context.Background()

	reply, err := f.chat.Send(ctx, "s1", "generate plans please")
	require.NoError(t, err)

	assert.Equal(t, "Here are two options.", reply.Content)
	assert.Equal(t, 3, reply.Steps)
	require.Len(t, reply.ToolCalls, 2)

	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingChoice, sess.ProjectState.Phase)
	assert.Len(t, sess.ProjectState.Architectures, 2)

	// user, assistant(call), tool, assistant(call), tool, assistant
	require.Len(t, sess.Messages, 6)
	assert.Equal(t, domain.RoleUser, sess.Messages[0].Role)
	assert.Equal(t, domain.RoleTool, sess.Messages[2].Role)
	assert.Equal(t, "c1", sess.Messages[2].ToolResults[0].ToolCallID)
	assert.False(t, sess.Messages[2].ToolResults[0].IsError)
	assert.Contains(t, sess.Messages[4].ToolResults[0].Content, `"count":2`)

	// 每一步都带上系统提示词和工具定义
	require.Len(t, f.model.chats, 3)
	for _, req := range f.model.chats {
		assert.Contains(t, req.System, "cloudflare")
		assert.Len(t, req.Tools, 3)
	}
}

func TestChatToolErrorIsReturnedToModel(t *testing.T) {
	f := newFixture(t, false)
	f.model.replies = []llm.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c1", ToolGeneratePlans, `{"useDefaultWorkload": false}`)}},
		{Content: "I need more details about your workload."},
	}
	ctx := context.Background()

	reply, err := f.chat.Send(ctx, "s1", "custom plans")
	require.NoError(t, err)
	assert.Equal(t, "I need more details about your workload.", reply.Content)

	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	result := sess.Messages[2].ToolResults[0]
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, ErrMissingRequirements.Error())
	assert.Equal(t, domain.PhaseCollectingRequirements, sess.ProjectState.Phase)
}

func TestChatUnknownToolIsReturnedToModel(t *testing.T) {
	f := newFixture(t, false)
	f.model.replies = []llm.ChatResponse{
		{ToolCalls: []domain.ToolCall{toolCall("c1", "selectArchitecture", `{}`)}},
		{Content: "ok"},
	}

	_, err := f.chat.Send(context.Background(), "s1", "pick one")
	require.NoError(t, err)

	sess, err := f.sessions.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, sess.Messages[2].ToolResults[0].IsError)
	assert.Contains(t, sess.Messages[2].ToolResults[0].Content, "unknown tool")
}

func TestChatStopsAtMaxSteps(t *testing.T) {
	f := newFixture(t, false)
	f.model.loopCall = &llm.ChatResponse{
		ToolCalls: []domain.ToolCall{toolCall("loop", ToolShowDefaultWorkload, `{}`)},
	}

	_, err := f.chat.Send(context.Background(), "s1", "hello")
	assert.ErrorIs(t, err, ErrMaxSteps)
	assert.Len(t, f.model.chats, 4)
}

func TestChatModelErrorKeepsUserMessage(t *testing.T) {
	f := newFixture(t, false)
	f.model.chatErr = errors.New("rate limited")
	ctx := context.Background()

	_, err := f.chat.Send(ctx, "s1", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")

	sess, err := f.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, sess.Messages, 1)
	assert.Equal(t, "hello", sess.Messages[0].Content)
}

func TestChatDropsDanglingToolCalls(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	sess := f.sessions.New("s1")
	sess.Messages = []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{toolCall("lost", ToolShowDefaultWorkload, `{}`)}},
	}
	require.NoError(t, f.sessions.Save(ctx, sess))

	_, err := f.chat.Send(ctx, "s1", "again")
	require.NoError(t, err)

	sent := f.model.chats[0].Messages
	require.Len(t, sent, 2)
	assert.Equal(t, "hi", sent[0].Content)
	assert.Equal(t, "again", sent[1].Content)
}

func TestChatRequiresSession(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.chat.Send(context.Background(), "", "hello")
	assert.ErrorIs(t, err, ErrNoContext)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	sess, err := f.sessions.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, domain.ProviderCloudflare, sess.PreferredCloudProvider)
	assert.Equal(t, domain.DefaultWorkload(), sess.DefaultWorkload)
	assert.Equal(t, domain.PhaseCollectingRequirements, sess.ProjectState.Phase)
	assert.Nil(t, sess.ProjectState.Requirements)
	assert.Empty(t, sess.ProjectState.Architectures)

	_, err = f.sessions.InvokeTool(ctx, sess.ID, ToolGeneratePlans, nil)
	require.NoError(t, err)

	stored, err := f.sessions.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingChoice, stored.ProjectState.Phase)

	reset, err := f.sessions.Reset(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reset.ID)
	assert.Equal(t, domain.PhaseCollectingRequirements, reset.ProjectState.Phase)
	assert.Empty(t, reset.ProjectState.Architectures)

	list, err := f.sessions.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, f.sessions.Delete(ctx, sess.ID))
	_, err = f.sessions.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestInvokeToolFailureIsNotPersisted(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.sessions.InvokeTool(ctx, "s1", ToolUpdateWorkload, json.RawMessage(`{"style": "baroque"}`))
	require.Error(t, err)

	_, err = f.sessions.Get(ctx, "s1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestSessionsAreIsolated(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.sessions.InvokeTool(ctx, "a", ToolUpdateWorkload, json.RawMessage(`{"title": "only a"}`))
	require.NoError(t, err)

	res, err := f.sessions.InvokeTool(ctx, "b", ToolShowDefaultWorkload, nil)
	require.NoError(t, err)
	assert.Equal(t, "basic website", res.(*ShowDefaultWorkloadResult).Workload.Title)

	b, err := f.sessions.Get(ctx, "b")
	require.NoError(t, err)
	assert.Nil(t, b.ProjectState.Requirements)
}

func TestConcurrentInvokeSerializesPerSession(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessions.InvokeTool(ctx, "shared", ToolGeneratePlans, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := f.sessions.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseAwaitingChoice, sess.ProjectState.Phase)
	assert.Len(t, sess.ProjectState.Architectures, 2)
	assert.Len(t, f.model.prompts, 8)
}

func lockRefs(s *SessionService, id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l.refs
	}
	return 0
}

func TestDeleteKeepsWaitersSerialized(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	_, err := f.sessions.InvokeTool(ctx, "x", ToolShowDefaultWorkload, nil)
	require.NoError(t, err)

	release := f.sessions.Lock("x")

	deleted := make(chan error, 1)
	go func() { deleted <- f.sessions.Delete(ctx, "x") }()
	require.Eventually(t, func() bool { return lockRefs(f.sessions, "x") == 2 }, time.Second, time.Millisecond)

	entered := make(chan struct{})
	proceed := make(chan struct{})
	go func() {
		unlock := f.sessions.Lock("x")
		close(entered)
		<-proceed
		unlock()
	}()
	require.Eventually(t, func() bool { return lockRefs(f.sessions, "x") == 3 }, time.Second, time.Millisecond)

	release()
	<-entered

	var acquired atomic.Bool
	go func() {
		unlock := f.sessions.Lock("x")
		acquired.Store(true)
		unlock()
	}()
	assert.Never(t, acquired.Load, 50*time.Millisecond, 5*time.Millisecond)

	close(proceed)
	require.NoError(t, <-deleted)
	require.Eventually(t, acquired.Load, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return lockRefs(f.sessions, "x") == 0 }, time.Second, time.Millisecond)
}
