package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/ollama/ollama/api"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

// OllamaModel 本地 Ollama 客户端
type OllamaModel struct {
	client *api.Client
	model  string
}

// NewOllamaModel 创建 Ollama 客户端
func NewOllamaModel(hostURL, model string) (*OllamaModel, error) {
	parsed, err := url.Parse(hostURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host %q: %w", hostURL, err)
	}
	return &OllamaModel{
		client: api.NewClient(parsed, http.DefaultClient),
		model:  model,
	}, nil
}

// Name 返回模型名
func (m *OllamaModel) Name() string {
	return "ollama/" + m.model
}

func (m *OllamaModel) chat(ctx context.Context, req *api.ChatRequest) (api.ChatResponse, error) {
	stream := false
	req.Model = m.model
	req.Stream = &stream

	var response api.ChatResponse
	err := m.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	return response, err
}

// Chat 执行一步对话
func (m *OllamaModel) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	chatReq := &api.ChatRequest{Messages: toOllamaMessages(req.System, req.Messages)}
	if req.MaxTokens > 0 {
		chatReq.Options = map[string]any{"num_predict": req.MaxTokens}
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOllamaTools(req.Tools)
	}

	resp, err := m.chat(ctx, chatReq)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("ollama chat: %w", err)
	}

	out := ChatResponse{Content: resp.Message.Content, StopReason: resp.DoneReason}
	for i, call := range resp.Message.ToolCalls {
		id := call.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        id,
			Name:      call.Function.Name,
			Arguments: argsJSON(call.Function.Arguments.ToMap()),
		})
	}
	return out, nil
}

// GenerateObject 通过 format 参数约束输出为指定 JSON Schema
func (m *OllamaModel) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	format, err := json.Marshal(req.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	chatReq := &api.ChatRequest{
		Messages: toOllamaMessages(req.System, []domain.Message{{Role: domain.RoleUser, Content: req.Prompt}}),
		Format:   format,
	}
	resp, err := m.chat(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("ollama structured generation: %w", err)
	}
	if resp.Message.Content == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(resp.Message.Content), nil
}

func toOllamaMessages(system string, messages []domain.Message) []api.Message {
	out := make([]api.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, api.Message{Role: "system", Content: system})
	}
	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleTool:
			for _, tr := range msg.ToolResults {
				out = append(out, api.Message{Role: "tool", Content: tr.Content, ToolCallID: tr.ToolCallID})
			}
		default:
			m := api.Message{Role: string(msg.Role), Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args := api.NewToolCallFunctionArguments()
				for k, v := range argsMap(tc.Arguments) {
					args.Set(k, v)
				}
				m.ToolCalls = append(m.ToolCalls, api.ToolCall{
					ID:       tc.ID,
					Function: api.ToolCallFunction{Name: tc.Name, Arguments: args},
				})
			}
			out = append(out, m)
		}
	}
	return out
}

func toOllamaTools(defs []ToolDefinition) api.Tools {
	tools := make(api.Tools, len(defs))
	for i, def := range defs {
		properties := api.NewToolPropertiesMap()
		for name, prop := range def.InputSchema.Properties {
			p := api.ToolProperty{
				Type:        api.PropertyType{prop.Type},
				Description: prop.Description,
			}
			if len(prop.Enum) > 0 {
				p.Enum = prop.Enum
			}
			properties.Set(name, p)
		}
		tools[i] = api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        def.Name,
				Description: def.Description,
				Parameters: api.ToolFunctionParameters{
					Type:       "object",
					Properties: properties,
					Required:   def.InputSchema.Required,
				},
			},
		}
	}
	return tools
}
