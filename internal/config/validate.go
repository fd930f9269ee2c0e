package config

import (
	"errors"
	"fmt"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

var supportedProviders = []string{"gemini", "openai", "anthropic", "ollama"}

// Validate 检查配置取值是否合法
func (c *Config) Validate() error {
	var errs []error

	if !contains(supportedProviders, c.LLM.Provider) {
		errs = append(errs, fmt.Errorf("llm.provider 不支持: %q", c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens 必须大于 0"))
	}
	if c.LLM.MaxSteps <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_steps 必须大于 0"))
	}
	if c.Architect.PreferredCloudProvider == "" {
		errs = append(errs, fmt.Errorf("architect.preferred_cloud_provider 不能为空"))
	}
	if c.Session.Store != "sqlite" && c.Session.Store != "memory" {
		errs = append(errs, fmt.Errorf("session.store 只支持 sqlite 或 memory: %q", c.Session.Store))
	}
	if c.Session.Store == "memory" && c.Session.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("session.max_sessions 必须大于 0"))
	}

	w := c.Workload
	if w.MonthlyRequests < 0 {
		errs = append(errs, fmt.Errorf("workload.monthly_requests 不能为负数"))
	}
	if w.DataPerRequestKB < 0 {
		errs = append(errs, fmt.Errorf("workload.data_per_request_kb 不能为负数"))
	}
	if !contains(domain.LatencySensitivities, w.LatencySensitivity) {
		errs = append(errs, fmt.Errorf("workload.latency_sensitivity 非法: %q", w.LatencySensitivity))
	}
	if !contains(domain.DataResidencies, w.DataResidency) {
		errs = append(errs, fmt.Errorf("workload.data_residency 非法: %q", w.DataResidency))
	}
	if !contains(domain.Sensitivities, w.Sensitivity) {
		errs = append(errs, fmt.Errorf("workload.sensitivity 非法: %q", w.Sensitivity))
	}
	if !contains(domain.Complexities, w.Complexity) {
		errs = append(errs, fmt.Errorf("workload.complexity 非法: %q", w.Complexity))
	}
	if !contains(domain.ArchitectureStyles, w.Style) {
		errs = append(errs, fmt.Errorf("workload.style 非法: %q", w.Style))
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %w", errors.Join(errs...))
	}
	return nil
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
