package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/lucksec/cloudarchitect/internal/credentials"
	"github.com/lucksec/cloudarchitect/internal/domain"
)

// DefaultModels 各提供方未指定模型时使用的默认模型
var DefaultModels = map[credentials.Provider]string{
	credentials.ProviderGemini:    "gemini-2.5-flash",
	credentials.ProviderOpenAI:    "gpt-4o-mini",
	credentials.ProviderAnthropic: "claude-sonnet-4-5",
	credentials.ProviderOllama:    "llama3.1",
}

// DefaultModelRef 补全模型引用中缺省的模型名
func DefaultModelRef(provider, model string) domain.ModelRef {
	if model == "" {
		model = DefaultModels[credentials.Provider(provider)]
	}
	return domain.ModelRef{Provider: provider, Name: model}
}

// NewModel 根据提供方和凭据创建模型客户端
func NewModel(ctx context.Context, ref domain.ModelRef, creds credentials.CredentialManager) (Model, error) {
	provider := credentials.Provider(ref.Provider)
	if !provider.IsValid() {
		return nil, fmt.Errorf("不支持的模型提供方: %s", ref.Provider)
	}
	ref = DefaultModelRef(ref.Provider, ref.Name)

	c, err := creds.GetCredentials(provider)
	if err != nil {
		return nil, err
	}

	switch provider {
	case credentials.ProviderOpenAI:
		return NewOpenAIModel(c.APIKey, c.BaseURL, ref.Name), nil
	case credentials.ProviderAnthropic:
		return NewAnthropicModel(c.APIKey, c.BaseURL, ref.Name), nil
	case credentials.ProviderGemini:
		return NewGeminiModel(ctx, c.APIKey, ref.Name)
	case credentials.ProviderOllama:
		return NewOllamaModel(c.BaseURL, ref.Name)
	default:
		return nil, fmt.Errorf("不支持的模型提供方: %s", ref.Provider)
	}
}

// Resolver 把会话中的模型引用解析为客户端
type Resolver interface {
	Resolve(ctx context.Context, ref domain.ModelRef) (Model, error)
}

// Registry 按引用缓存模型客户端
type Registry struct {
	creds  credentials.CredentialManager
	mu     sync.Mutex
	models map[domain.ModelRef]Model
}

// NewRegistry 创建模型注册表
func NewRegistry(creds credentials.CredentialManager) *Registry {
	return &Registry{
		creds:  creds,
		models: make(map[domain.ModelRef]Model),
	}
}

// Resolve 返回缓存的客户端，不存在时创建
func (r *Registry) Resolve(ctx context.Context, ref domain.ModelRef) (Model, error) {
	ref = DefaultModelRef(ref.Provider, ref.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[ref]; ok {
		return m, nil
	}
	m, err := NewModel(ctx, ref, r.creds)
	if err != nil {
		return nil, fmt.Errorf("创建模型 %s 失败: %w", ref, err)
	}
	r.models[ref] = m
	return m, nil
}

// Register 注册一个现成的客户端，主要用于测试
func (r *Registry) Register(ref domain.ModelRef, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[DefaultModelRef(ref.Provider, ref.Name)] = m
}
