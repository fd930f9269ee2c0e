package domain

import "encoding/json"

// Role 消息角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall 模型发起的一次工具调用
type ToolCall struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty" yaml:"-"`
}

// ToolResult 工具调用的结果
type ToolResult struct {
	ToolCallID string `json:"toolCallId" yaml:"toolCallId"`
	Name       string `json:"name" yaml:"name"`
	Content    string `json:"content" yaml:"content"` // JSON 文本
	IsError    bool   `json:"isError,omitempty" yaml:"isError,omitempty"`
}

// Message 对话中的一条消息
type Message struct {
	Role        Role         `json:"role" yaml:"role"`
	Content     string       `json:"content,omitempty" yaml:"content,omitempty"`
	ToolCalls   []ToolCall   `json:"toolCalls,omitempty" yaml:"toolCalls,omitempty"`
	ToolResults []ToolResult `json:"toolResults,omitempty" yaml:"toolResults,omitempty"`
}

// CleanupMessages 移除没有对应结果的工具调用
//
// 中断的轮次可能留下只有调用没有结果的 assistant 消息，多数模型接口会拒绝这样的历史。
func CleanupMessages(messages []Message) []Message {
	answered := make(map[string]bool)
	for _, m := range messages {
		for _, r := range m.ToolResults {
			answered[r.ToolCallID] = true
		}
	}

	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleAssistant && len(m.ToolCalls) > 0 {
			kept := make([]ToolCall, 0, len(m.ToolCalls))
			for _, c := range m.ToolCalls {
				if answered[c.ID] {
					kept = append(kept, c)
				}
			}
			m.ToolCalls = kept
			if len(kept) == 0 && m.Content == "" {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}
