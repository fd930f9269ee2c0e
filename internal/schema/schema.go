// Package schema 定义与模型、工具调用方交换的 JSON Schema，并负责校验
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

func enum[T ~string](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}

func str(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

// EmptyObject 无参数工具的输入
func EmptyObject() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "object", Properties: map[string]*jsonschema.Schema{}}
}

// WorkloadUpdate 部分工作负载需求，所有字段可选
func WorkloadUpdate() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"title":       str("Title of the workload"),
			"description": str("Description of the workload"),
			"monthlyRequests": {
				Type:        "integer",
				Description: "Expected number of requests per month",
				Minimum:     jsonschema.Ptr(0.0),
			},
			"dataPerRequestKB": {
				Type:        "number",
				Description: "Average data size per request in KB",
				Minimum:     jsonschema.Ptr(0.0),
			},
			"latencySensitivity": {
				Type:        "string",
				Description: "Latency sensitivity of the workload",
				Enum:        enum(domain.LatencySensitivities),
			},
			"dataResidency": {
				Type:        "string",
				Description: "Data residency requirement",
				Enum:        enum(domain.DataResidencies),
			},
			"sensitivity": {
				Type:        "string",
				Description: "What the workload should be optimized for",
				Enum:        enum(domain.Sensitivities),
			},
			"complexity": {
				Type:        "string",
				Description: "Complexity of the workload",
				Enum:        enum(domain.Complexities),
			},
			"style": {
				Type:        "string",
				Description: "Architectural style of the workload",
				Enum:        enum(domain.ArchitectureStyles),
			},
		},
	}
}

// GeneratePlans generateArchitecturePlans 的输入
func GeneratePlans() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"useDefaultWorkload": {
				Type:        "boolean",
				Description: "Whether to use the default workload requirements (defaults to true)",
				Default:     json.RawMessage("true"),
			},
		},
	}
}

// Architectures 架构生成器的结构化输出 {architectures: ArchitectureOption[]}
func Architectures() *jsonschema.Schema {
	component := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id", "kind", "provider", "name", "config"},
		Properties: map[string]*jsonschema.Schema{
			"id":       str("Identifier unique within the option"),
			"kind":     str("Resource kind, e.g. cf_worker, aws_lambda, gcp_cloud_run, docker_service"),
			"provider": str("cloudflare, aws, gcp or multi-cloud"),
			"name":     str("Human readable component name"),
			"config": {
				Type:        "object",
				Description: "Free-form configuration for the component",
			},
		},
	}
	option := &jsonschema.Schema{
		Type:     "object",
		Required: []string{"id", "name", "summary", "components"},
		Properties: map[string]*jsonschema.Schema{
			"id":         str("Option identifier"),
			"name":       str("Option name"),
			"summary":    str("Summary including cost/performance tradeoffs"),
			"components": {Type: "array", Items: component},
		},
	}
	return &jsonschema.Schema{
		Type:     "object",
		Required: []string{"architectures"},
		Properties: map[string]*jsonschema.Schema{
			"architectures": {Type: "array", Items: option},
		},
	}
}

// Validator 已解析的 schema，可并发使用
type Validator struct {
	schema   *jsonschema.Schema
	once     sync.Once
	resolved *jsonschema.Resolved
	err      error
}

// NewValidator 创建校验器，schema 在第一次校验时解析
func NewValidator(s *jsonschema.Schema) *Validator {
	return &Validator{schema: s}
}

// Schema 返回原始 schema
func (v *Validator) Schema() *jsonschema.Schema {
	return v.schema
}

// Validate 校验原始 JSON，空输入视为 {}
func (v *Validator) Validate(raw json.RawMessage) error {
	v.once.Do(func() {
		v.resolved, v.err = v.schema.Resolve(nil)
	})
	if v.err != nil {
		return fmt.Errorf("resolve schema: %w", v.err)
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		raw = json.RawMessage("{}")
	}

	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return v.resolved.Validate(instance)
}

// StripNulls 删除顶层对象中值为 null 的键，null 与缺省等价
//
// 非对象输入原样返回，由后续校验报错。
func StripNulls(raw json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return raw
	}
	changed := false
	for k, v := range obj {
		if bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			delete(obj, k)
			changed = true
		}
	}
	if !changed {
		return raw
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return out
}

// Map 把 schema 转成普通 map，供只接受 map 的 SDK 使用
func Map(s *jsonschema.Schema) map[string]any {
	data, err := json.Marshal(s)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	return out
}
