// Package llm 封装各家模型 SDK，对上层提供统一的对话（带工具调用）与结构化生成接口
package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

// ErrEmptyResponse 模型返回了空结果
var ErrEmptyResponse = errors.New("empty response from model")

// ToolDefinition 暴露给模型的工具
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// ChatRequest 一次对话请求
type ChatRequest struct {
	System    string
	Messages  []domain.Message
	Tools     []ToolDefinition
	MaxTokens int
}

// ChatResponse 模型的一步回复，ToolCalls 为空表示本轮结束
type ChatResponse struct {
	Content    string
	ToolCalls  []domain.ToolCall
	StopReason string
}

// ObjectRequest 结构化生成请求，返回值须符合 Schema
type ObjectRequest struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     *jsonschema.Schema
	MaxTokens  int
}

// Model 模型客户端
type Model interface {
	// Name 返回 provider/model
	Name() string

	// Chat 执行一步对话，可能返回工具调用
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// GenerateObject 生成符合 schema 的 JSON，不做校验
	GenerateObject(ctx context.Context, req ObjectRequest) (json.RawMessage, error)
}

// argsMap 把工具参数解析为 map，空参数返回空 map
func argsMap(raw json.RawMessage) map[string]any {
	out := map[string]any{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	return out
}

// argsJSON 把 map 形式的工具参数编码为 JSON
func argsJSON(args map[string]any) json.RawMessage {
	if args == nil {
		return json.RawMessage("{}")
	}
	data, err := json.Marshal(args)
	if err != nil {
		return json.RawMessage("{}")
	}
	return data
}
