package credentials

// Provider 模型服务提供方
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderOllama    Provider = "ollama"
)

// AllProviders 所有支持的提供方
var AllProviders = []Provider{
	ProviderGemini,
	ProviderOpenAI,
	ProviderAnthropic,
	ProviderOllama,
}

// String 返回 Provider 的字符串表示
func (p Provider) String() string {
	return string(p)
}

// DisplayName 返回 Provider 的显示名称
func (p Provider) DisplayName() string {
	names := map[Provider]string{
		ProviderOpenAI:    "OpenAI",
		ProviderAnthropic: "Anthropic",
		ProviderGemini:    "Google Gemini",
		ProviderOllama:    "Ollama",
	}

	if name, ok := names[p]; ok {
		return name
	}
	return string(p)
}

// IsValid 检查 Provider 是否有效
func (p Provider) IsValid() bool {
	for _, valid := range AllProviders {
		if p == valid {
			return true
		}
	}
	return false
}

// RequiresAPIKey 是否必须配置 API Key（本地 Ollama 不需要）
func (p Provider) RequiresAPIKey() bool {
	return p != ProviderOllama
}

// envKeys 各提供方读取 API Key 的环境变量，按优先级排列
var envKeys = map[Provider][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY"},
	ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderOllama:    {"OLLAMA_API_KEY"},
}

// envBaseURLs 各提供方读取服务地址的环境变量
var envBaseURLs = map[Provider]string{
	ProviderOpenAI:    "OPENAI_BASE_URL",
	ProviderAnthropic: "ANTHROPIC_BASE_URL",
	ProviderOllama:    "OLLAMA_HOST",
}

// DefaultOllamaURL 本地 Ollama 默认地址
const DefaultOllamaURL = "http://localhost:11434"
