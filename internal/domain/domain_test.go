package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupMessages(t *testing.T) {
	messages := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "a", Name: "x"}, {ID: "b", Name: "y"}}},
		{Role: RoleTool, ToolResults: []ToolResult{{ToolCallID: "a", Name: "x", Content: "{}"}}},
		{Role: RoleAssistant, Content: "thinking", ToolCalls: []ToolCall{{ID: "c", Name: "z"}}},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "d", Name: "z"}}},
	}

	out := CleanupMessages(messages)
	require.Len(t, out, 4)
	assert.Equal(t, []ToolCall{{ID: "a", Name: "x"}}, out[1].ToolCalls)
	assert.Equal(t, "thinking", out[3].Content)
	assert.Empty(t, out[3].ToolCalls)

	// 原切片不变
	assert.Len(t, messages[1].ToolCalls, 2)
}

func TestProjectStateClone(t *testing.T) {
	req := DefaultWorkload()
	state := ProjectState{
		Requirements: &req,
		Architectures: []ArchitectureOption{{
			ID:         "a",
			Components: []ArchitectureComponent{{ID: "c1", Kind: KindCFWorker}},
		}},
		Phase: PhaseAwaitingChoice,
	}

	clone := state.Clone()
	assert.Equal(t, state, clone)

	clone.Requirements.Title = "changed"
	clone.Architectures[0].Components[0].ID = "changed"
	clone.Architectures[0].Name = "changed"

	assert.Equal(t, "basic website", state.Requirements.Title)
	assert.Equal(t, "c1", state.Architectures[0].Components[0].ID)
	assert.Equal(t, "", state.Architectures[0].Name)
}

func TestNewProjectState(t *testing.T) {
	state := NewProjectState()
	assert.Nil(t, state.Requirements)
	assert.NotNil(t, state.Architectures)
	assert.Empty(t, state.Architectures)
	assert.Equal(t, PhaseCollectingRequirements, state.Phase)
	assert.Empty(t, state.SelectedArchitectureID)
}

func TestPhaseIsValid(t *testing.T) {
	for _, p := range Phases {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, Phase("deploying").IsValid())
}

func TestWorkloadUpdateIsEmpty(t *testing.T) {
	assert.True(t, WorkloadUpdate{}.IsEmpty())
	style := StyleServerless
	assert.False(t, WorkloadUpdate{Style: &style}.IsEmpty())
}

func TestModelRefString(t *testing.T) {
	assert.Equal(t, "openai/gpt-4o", ModelRef{Provider: "openai", Name: "gpt-4o"}.String())
	assert.Equal(t, "llama3", ModelRef{Name: "llama3"}.String())
}
