package service

import (
	"errors"
	"fmt"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

var (
	// ErrNoContext 调用工具时没有提供会话
	ErrNoContext = errors.New("no session context available")

	// ErrMissingRequirements 生成架构时没有可用的工作负载需求
	ErrMissingRequirements = errors.New("no workload requirements available")

	// ErrMaxSteps 一轮对话中模型的工具调用步数超过上限
	ErrMaxSteps = errors.New("tool step limit reached")
)

// SchemaValidationError 工具输入或生成结果不符合 schema
type SchemaValidationError struct {
	Target string // 工具名或 "architectures"
	Err    error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("schema validation failed for %s: %v", e.Target, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// UnknownToolError 工具名不存在
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// PhaseOrderError 严格模式下工具调用顺序不合法
type PhaseOrderError struct {
	Tool  string
	Phase domain.Phase
}

func (e *PhaseOrderError) Error() string {
	return fmt.Sprintf("tool %s is not allowed in phase %s", e.Tool, e.Phase)
}
