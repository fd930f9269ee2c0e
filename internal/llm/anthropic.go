package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/schema"
)

// AnthropicModel Claude 客户端
type AnthropicModel struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicModel 创建 Claude 客户端
func NewAnthropicModel(apiKey, baseURL, model string) *AnthropicModel {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &AnthropicModel{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

// Name 返回模型名
func (m *AnthropicModel) Name() string {
	return "anthropic/" + string(m.model)
}

func (m *AnthropicModel) params(system string, maxTokens int) anthropic.MessageNewParams {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     m.model,
		MaxTokens: int64(maxTokens),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

// Chat 执行一步对话
func (m *AnthropicModel) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	params := m.params(req.System, req.MaxTokens)
	params.Messages = toAnthropicMessages(req.Messages)
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
		params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("anthropic messages: %w", err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return ChatResponse{}, ErrEmptyResponse
	}

	out := ChatResponse{StopReason: string(resp.StopReason)}
	for i := range resp.Content {
		block := &resp.Content[i]
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			use := block.AsToolUse()
			args := json.RawMessage(use.Input)
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{ID: use.ID, Name: use.Name, Arguments: args})
		}
	}
	return out, nil
}

// GenerateObject 通过强制调用单个工具获得结构化结果，工具输入即为对象
func (m *AnthropicModel) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	name := req.SchemaName
	if name == "" {
		name = "respond"
	}

	params := m.params(req.System, req.MaxTokens)
	params.Messages = []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}
	params.Tools = toAnthropicTools([]ToolDefinition{{
		Name:        name,
		Description: "Return the result in the required structure.",
		InputSchema: req.Schema,
	}})
	params.ToolChoice = anthropic.ToolChoiceUnionParam{OfTool: &anthropic.ToolChoiceToolParam{Name: name}}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic structured generation: %w", err)
	}
	if resp != nil {
		for i := range resp.Content {
			if resp.Content[i].Type == "tool_use" {
				return json.RawMessage(resp.Content[i].AsToolUse().Input), nil
			}
		}
	}
	return nil, ErrEmptyResponse
}

func toAnthropicMessages(messages []domain.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case domain.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, argsMap(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case domain.RoleTool:
			// 工具结果以 user 消息回传
			blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.ToolResults))
			for _, tr := range msg.ToolResults {
				blocks = append(blocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewUserMessage(blocks...))
			}
		}
	}
	return out
}

func toAnthropicTools(defs []ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		s := schema.Map(def.InputSchema)
		input := anthropic.ToolInputSchemaParam{Properties: s["properties"]}
		if req, ok := s["required"].([]any); ok {
			for _, r := range req {
				if name, ok := r.(string); ok {
					input.Required = append(input.Required, name)
				}
			}
		}
		tools[i] = anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        def.Name,
			Description: anthropic.String(def.Description),
			InputSchema: input,
		}}
	}
	return tools
}
