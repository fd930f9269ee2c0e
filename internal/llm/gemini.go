package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/schema"
)

// GeminiModel Google Gemini 客户端
type GeminiModel struct {
	cli   *genai.Client
	model string
}

// NewGeminiModel 创建 Gemini 客户端
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{cli: cli, model: model}, nil
}

// Name 返回模型名
func (m *GeminiModel) Name() string {
	return "gemini/" + m.model
}

func (m *GeminiModel) config(system string, maxTokens int) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = int32(maxTokens)
	}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	return cfg
}

// Chat 执行一步对话
func (m *GeminiModel) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	cfg := m.config(req.System, req.MaxTokens)
	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, t := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 t.Name,
				Description:          t.Description,
				ParametersJsonSchema: schema.Map(t.InputSchema),
			}
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	result, err := m.cli.Models.GenerateContent(ctx, m.model, toGeminiContents(req.Messages), cfg)
	if err != nil {
		return ChatResponse{}, fmt.Errorf("gemini generate content: %w", err)
	}
	if result == nil || len(result.Candidates) == 0 {
		return ChatResponse{}, ErrEmptyResponse
	}

	out := ChatResponse{
		Content:    result.Text(),
		StopReason: string(result.Candidates[0].FinishReason),
	}
	for _, call := range result.FunctionCalls() {
		// Gemini 不一定返回调用 ID
		id := call.ID
		if id == "" {
			id = "call_" + uuid.NewString()
		}
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        id,
			Name:      call.Name,
			Arguments: argsJSON(call.Args),
		})
	}
	return out, nil
}

// GenerateObject 使用 JSON 响应模式生成结构化结果
func (m *GeminiModel) GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error) {
	cfg := m.config(req.System, req.MaxTokens)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseJsonSchema = schema.Map(req.Schema)

	result, err := m.cli.Models.GenerateContent(ctx, m.model,
		[]*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: req.Prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, fmt.Errorf("gemini structured generation: %w", err)
	}
	if result == nil {
		return nil, ErrEmptyResponse
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(text), nil
}

func toGeminiContents(messages []domain.Message) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		var parts []*genai.Part
		role := "user"

		switch msg.Role {
		case domain.RoleUser:
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
		case domain.RoleAssistant:
			role = "model"
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   tc.ID,
					Name: tc.Name,
					Args: argsMap(tc.Arguments),
				}})
			}
		case domain.RoleTool:
			for _, tr := range msg.ToolResults {
				response := map[string]any{}
				if err := json.Unmarshal([]byte(tr.Content), &response); err != nil {
					response = map[string]any{"content": tr.Content}
				}
				if tr.IsError {
					response = map[string]any{"error": response}
				}
				parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       tr.ToolCallID,
					Name:     tr.Name,
					Response: response,
				}})
			}
		}

		if len(parts) > 0 {
			contents = append(contents, &genai.Content{Role: role, Parts: parts})
		}
	}
	return contents
}
