package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/metrics"
	"github.com/lucksec/cloudarchitect/internal/schema"
)

// architecturesTarget SchemaValidationError 中生成结果的目标名
const architecturesTarget = "architectures"

// GenerationRequest 架构生成输入
type GenerationRequest struct {
	Requirements      domain.WorkloadRequirements
	PreferredProvider domain.ProviderName
}

// ArchitectureGenerator 调用模型生成架构方案并校验结构
type ArchitectureGenerator struct {
	validator *schema.Validator
	maxTokens int
	recorder  metrics.Recorder
	log       logger.Logger
}

// NewArchitectureGenerator 创建架构生成器
func NewArchitectureGenerator(maxTokens int, recorder metrics.Recorder, log logger.Logger) *ArchitectureGenerator {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ArchitectureGenerator{
		validator: schema.NewValidator(schema.Architectures()),
		maxTokens: maxTokens,
		recorder:  recorder,
		log:       log,
	}
}

// Generate 生成架构方案
//
// 不重试，不设置超时，取消由 ctx 决定。
func (g *ArchitectureGenerator) Generate(ctx context.Context, model llm.Model, req GenerationRequest) (options []domain.ArchitectureOption, err error) {
	start := time.Now()
	defer func() {
		g.recorder.ObserveGeneration(model.Name(), len(options), err, time.Since(start))
	}()

	g.log.Debug("开始生成架构方案: model=%s title=%q", model.Name(), req.Requirements.Title)

	raw, err := model.GenerateObject(ctx, llm.ObjectRequest{
		Prompt:     BuildGenerationPrompt(req),
		SchemaName: "architecture_options",
		Schema:     g.validator.Schema(),
		MaxTokens:  g.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate architectures: %w", err)
	}

	options, err = g.parse(raw)
	if err != nil {
		g.log.Warn("模型输出未通过校验: %v", err)
		return nil, err
	}

	g.log.Info("生成了 %d 个架构方案 (耗时 %s)", len(options), time.Since(start).Round(time.Millisecond))
	return options, nil
}

// parse 校验并解码模型输出
func (g *ArchitectureGenerator) parse(raw json.RawMessage) ([]domain.ArchitectureOption, error) {
	raw = stripCodeFence(raw)
	if err := g.validator.Validate(raw); err != nil {
		return nil, &SchemaValidationError{Target: architecturesTarget, Err: err}
	}

	var out struct {
		Architectures []domain.ArchitectureOption `json:"architectures"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &SchemaValidationError{Target: architecturesTarget, Err: err}
	}

	for _, opt := range out.Architectures {
		seen := make(map[string]bool, len(opt.Components))
		for _, c := range opt.Components {
			if seen[c.ID] {
				return nil, &SchemaValidationError{
					Target: architecturesTarget,
					Err:    fmt.Errorf("duplicate component id %q in option %q", c.ID, opt.ID),
				}
			}
			seen[c.ID] = true
		}
	}

	if out.Architectures == nil {
		out.Architectures = []domain.ArchitectureOption{}
	}
	return out.Architectures, nil
}

// stripCodeFence 去掉部分模型包裹在 JSON 外的 ``` 代码块
func stripCodeFence(raw json.RawMessage) json.RawMessage {
	b := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(b, []byte("```")) {
		return b
	}
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	return bytes.TrimSpace(b)
}
