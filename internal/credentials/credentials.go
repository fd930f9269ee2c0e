package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"gopkg.in/ini.v1"
)

// Credentials 模型服务凭据
type Credentials struct {
	APIKey  string
	BaseURL string // 可选：自定义服务地址
}

// CredentialManager 凭据管理器接口
type CredentialManager interface {
	// GetCredentials 获取指定提供方的凭据，配置文件优先，其次环境变量
	GetCredentials(provider Provider) (*Credentials, error)

	// SetCredentials 设置指定提供方的凭据并写回配置文件
	SetCredentials(provider Provider, creds *Credentials) error

	// HasCredentials 检查是否已配置凭据
	HasCredentials(provider Provider) bool

	// ListProviders 列出所有已配置凭据的提供方
	ListProviders() []Provider

	// RemoveCredentials 删除指定提供方在配置文件中的凭据
	RemoveCredentials(provider Provider) error
}

// credentialManager 凭据管理器实现
type credentialManager struct {
	configPath string
	mu         sync.RWMutex
	creds      map[Provider]*Credentials
}

var defaultManager CredentialManager
var once sync.Once

// NewCredentialManager 创建凭据管理器实例
func NewCredentialManager(configPath string) (CredentialManager, error) {
	manager := &credentialManager{
		configPath: configPath,
		creds:      make(map[Provider]*Credentials),
	}

	if err := manager.load(); err != nil {
		return nil, fmt.Errorf("加载凭据配置失败: %w", err)
	}

	return manager, nil
}

// GetDefaultManager 获取默认凭据管理器
func GetDefaultManager() CredentialManager {
	once.Do(func() {
		configPaths := []string{".cloudarchitect.ini"}
		if home := os.Getenv("HOME"); home != "" {
			configPaths = append(configPaths, filepath.Join(home, ".cloudarchitect", ".cloudarchitect.ini"))
		}

		// 使用第一个已存在的配置文件，都不存在时在保存时创建第一个
		configPath := configPaths[0]
		for _, path := range configPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		manager, err := NewCredentialManager(configPath)
		if err != nil {
			defaultManager = &credentialManager{
				configPath: configPath,
				creds:      make(map[Provider]*Credentials),
			}
			return
		}
		defaultManager = manager
	})

	return defaultManager
}

// load 从配置文件加载凭据
func (m *credentialManager) load() error {
	if m.configPath == "" {
		return nil
	}
	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		return nil
	}

	cfg, err := ini.Load(m.configPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, provider := range AllProviders {
		if !cfg.HasSection(string(provider)) {
			continue
		}
		section := cfg.Section(string(provider))
		creds := &Credentials{
			APIKey:  section.Key("api_key").String(),
			BaseURL: section.Key("base_url").String(),
		}
		if creds.APIKey != "" || creds.BaseURL != "" {
			m.creds[provider] = creds
		}
	}

	return nil
}

// fromEnv 从环境变量读取凭据
func fromEnv(provider Provider) *Credentials {
	creds := &Credentials{}
	for _, key := range envKeys[provider] {
		if v := os.Getenv(key); v != "" {
			creds.APIKey = v
			break
		}
	}
	if key, ok := envBaseURLs[provider]; ok {
		creds.BaseURL = os.Getenv(key)
	}
	return creds
}

// resolve 合并配置文件与环境变量，调用方需持有读锁
func (m *credentialManager) resolve(provider Provider) *Credentials {
	env := fromEnv(provider)
	out := &Credentials{}
	if stored, ok := m.creds[provider]; ok {
		*out = *stored
	}
	if out.APIKey == "" {
		out.APIKey = env.APIKey
	}
	if out.BaseURL == "" {
		out.BaseURL = env.BaseURL
	}
	if provider == ProviderOllama && out.BaseURL == "" {
		out.BaseURL = DefaultOllamaURL
	}
	return out
}

// usable 凭据是否足以创建客户端
func usable(provider Provider, creds *Credentials) bool {
	if provider.RequiresAPIKey() {
		return creds.APIKey != ""
	}
	return creds.BaseURL != ""
}

// GetCredentials 获取指定提供方的凭据
func (m *credentialManager) GetCredentials(provider Provider) (*Credentials, error) {
	if !provider.IsValid() {
		return nil, fmt.Errorf("不支持的模型提供方: %s", provider)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	creds := m.resolve(provider)
	if !usable(provider, creds) {
		return nil, fmt.Errorf("未找到 %s 的凭据配置", provider.DisplayName())
	}
	return creds, nil
}

// SetCredentials 设置指定提供方的凭据
func (m *credentialManager) SetCredentials(provider Provider, creds *Credentials) error {
	if !provider.IsValid() {
		return fmt.Errorf("不支持的模型提供方: %s", provider)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *creds
	m.creds[provider] = &c
	return m.save()
}

// HasCredentials 检查是否已配置凭据
func (m *credentialManager) HasCredentials(provider Provider) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return provider.IsValid() && usable(provider, m.resolve(provider))
}

// ListProviders 列出所有已配置凭据的提供方
func (m *credentialManager) ListProviders() []Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var providers []Provider
	for _, provider := range AllProviders {
		env := fromEnv(provider)
		if _, stored := m.creds[provider]; stored || env.APIKey != "" || env.BaseURL != "" {
			providers = append(providers, provider)
		}
	}
	sort.Slice(providers, func(i, j int) bool { return providers[i] < providers[j] })
	return providers
}

// RemoveCredentials 删除指定提供方的凭据
func (m *credentialManager) RemoveCredentials(provider Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.creds, provider)
	return m.save()
}

// save 保存凭据到配置文件，保留文件中的其它节
func (m *credentialManager) save() error {
	if m.configPath == "" {
		m.configPath = ".cloudarchitect.ini"
	}

	dir := filepath.Dir(m.configPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建配置目录失败: %w", err)
		}
	}

	cfg := ini.Empty()
	if _, err := os.Stat(m.configPath); err == nil {
		if loaded, err := ini.Load(m.configPath); err == nil {
			cfg = loaded
		}
	}

	for _, provider := range AllProviders {
		creds, ok := m.creds[provider]
		if !ok {
			cfg.DeleteSection(string(provider))
			continue
		}
		section := cfg.Section(string(provider))
		section.Key("api_key").SetValue(creds.APIKey)
		if creds.BaseURL != "" {
			section.Key("base_url").SetValue(creds.BaseURL)
		} else {
			section.DeleteKey("base_url")
		}
	}

	if err := cfg.SaveTo(m.configPath); err != nil {
		return fmt.Errorf("保存凭据失败: %w", err)
	}
	// 文件包含密钥
	return os.Chmod(m.configPath, 0600)
}
