package llm

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucksec/cloudarchitect/internal/credentials"
	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/schema"
)

type stubModel struct{ name string }

func (s *stubModel) Name() string { return s.name }
func (s *stubModel) Chat(context.Context, ChatRequest) (ChatResponse, error) {
	return ChatResponse{}, nil
}
func (s *stubModel) GenerateObject(context.Context, ObjectRequest) (json.RawMessage, error) {
	return nil, nil
}

func newCreds(t *testing.T) credentials.CredentialManager {
	t.Helper()
	for _, k := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "OLLAMA_HOST"} {
		t.Setenv(k, "")
	}
	m, err := credentials.NewCredentialManager("")
	require.NoError(t, err)
	return m
}

func TestDefaultModelRef(t *testing.T) {
	assert.Equal(t, domain.ModelRef{Provider: "gemini", Name: "gemini-2.5-flash"}, DefaultModelRef("gemini", ""))
	assert.Equal(t, domain.ModelRef{Provider: "openai", Name: "gpt-4o"}, DefaultModelRef("openai", "gpt-4o"))
}

func TestNewModelRequiresCredentials(t *testing.T) {
	creds := newCreds(t)
	_, err := NewModel(context.Background(), domain.ModelRef{Provider: "openai"}, creds)
	assert.Error(t, err)

	_, err = NewModel(context.Background(), domain.ModelRef{Provider: "bedrock"}, creds)
	assert.Error(t, err)
}

func TestNewModelBuildsClients(t *testing.T) {
	creds := newCreds(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")

	m, err := NewModel(context.Background(), domain.ModelRef{Provider: "openai"}, creds)
	require.NoError(t, err)
	assert.Equal(t, "openai/gpt-4o-mini", m.Name())

	m, err = NewModel(context.Background(), domain.ModelRef{Provider: "anthropic", Name: "claude-x"}, creds)
	require.NoError(t, err)
	assert.Equal(t, "anthropic/claude-x", m.Name())

	m, err = NewModel(context.Background(), domain.ModelRef{Provider: "ollama"}, creds)
	require.NoError(t, err)
	assert.Equal(t, "ollama/llama3.1", m.Name())
}

func TestRegistryCaches(t *testing.T) {
	r := NewRegistry(newCreds(t))
	stub := &stubModel{name: "fake"}
	r.Register(domain.ModelRef{Provider: "gemini"}, stub)

	m, err := r.Resolve(context.Background(), domain.ModelRef{Provider: "gemini", Name: "gemini-2.5-flash"})
	require.NoError(t, err)
	assert.Same(t, stub, m)
}

func TestMessageConversionKeepsToolPairs(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, ToolCalls: []domain.ToolCall{{ID: "c1", Name: "showDefaultWorkloadForConfirmation", Arguments: json.RawMessage(`{}`)}}},
		{Role: domain.RoleTool, ToolResults: []domain.ToolResult{{ToolCallID: "c1", Name: "showDefaultWorkloadForConfirmation", Content: `{"workload":{}}`}}},
		{Role: domain.RoleAssistant, Content: "here it is"},
	}

	oa := toOpenAIMessages("sys", msgs)
	require.Len(t, oa, 5)
	require.NotNil(t, oa[2].OfAssistant)
	assert.Equal(t, "c1", oa[2].OfAssistant.ToolCalls[0].ID)
	require.NotNil(t, oa[3].OfTool)

	an := toAnthropicMessages(msgs)
	require.Len(t, an, 4)

	gm := toGeminiContents(msgs)
	require.Len(t, gm, 4)
	assert.Equal(t, "model", gm[1].Role)
	require.NotNil(t, gm[2].Parts[0].FunctionResponse)
	assert.Equal(t, "showDefaultWorkloadForConfirmation", gm[2].Parts[0].FunctionResponse.Name)

	ol := toOllamaMessages("sys", msgs)
	require.Len(t, ol, 5)
	assert.Equal(t, "tool", ol[3].Role)
	assert.Equal(t, "c1", ol[3].ToolCallID)
}

func TestToolConversion(t *testing.T) {
	defs := []ToolDefinition{{Name: "updateWorkloadRequirements", Description: "update", InputSchema: schema.WorkloadUpdate()}}

	oa := toOpenAITools(defs)
	require.Len(t, oa, 1)
	assert.Equal(t, "updateWorkloadRequirements", oa[0].Function.Name)

	an := toAnthropicTools(defs)
	require.NotNil(t, an[0].OfTool)
	assert.NotNil(t, an[0].OfTool.InputSchema.Properties)

	ol := toOllamaTools(defs)
	props := ol[0].Function.Parameters.Properties
	require.NotNil(t, props)
	assert.Equal(t, 9, props.Len())
	style, ok := props.Get("style")
	require.True(t, ok)
	assert.Len(t, style.Enum, 3)
}
