package domain

import "time"

// ModelRef 会话绑定的模型（由 llm 包解析为客户端）
type ModelRef struct {
	Provider string `json:"provider" yaml:"provider"`
	Name     string `json:"name" yaml:"name"`
}

// String 返回 provider/name 形式
func (m ModelRef) String() string {
	if m.Provider == "" {
		return m.Name
	}
	return m.Provider + "/" + m.Name
}

// Session 一个对话会话的完整状态
type Session struct {
	ID                     string               `json:"id" yaml:"id"`
	PreferredCloudProvider ProviderName         `json:"preferredCloudProvider" yaml:"preferredCloudProvider"`
	DefaultWorkload        WorkloadRequirements `json:"defaultWorkload" yaml:"defaultWorkload"`
	ProjectState           ProjectState         `json:"projectState" yaml:"projectState"`
	Model                  ModelRef             `json:"model" yaml:"model"`
	Messages               []Message            `json:"messages" yaml:"messages"`
	CreatedAt              time.Time            `json:"createdAt" yaml:"createdAt"`
	UpdatedAt              time.Time            `json:"updatedAt" yaml:"updatedAt"`
}

// SessionSummary 会话列表展示用的摘要
type SessionSummary struct {
	ID            string    `json:"id" yaml:"id"`
	Phase         Phase     `json:"phase" yaml:"phase"`
	Architectures int       `json:"architectures" yaml:"architectures"`
	Messages      int       `json:"messages" yaml:"messages"`
	UpdatedAt     time.Time `json:"updatedAt" yaml:"updatedAt"`
}

// Summary 生成会话摘要
func (s *Session) Summary() SessionSummary {
	return SessionSummary{
		ID:            s.ID,
		Phase:         s.ProjectState.Phase,
		Architectures: len(s.ProjectState.Architectures),
		Messages:      len(s.Messages),
		UpdatedAt:     s.UpdatedAt,
	}
}
