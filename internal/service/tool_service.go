package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/llm"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/metrics"
	"github.com/lucksec/cloudarchitect/internal/schema"
)

// ShowDefaultWorkloadResult showDefaultWorkloadForConfirmation 的结果
type ShowDefaultWorkloadResult struct {
	Message  string                      `json:"message" yaml:"message"`
	Workload domain.WorkloadRequirements `json:"workload" yaml:"workload"`
	Question string                      `json:"question" yaml:"question"`
}

// UpdateWorkloadResult updateWorkloadRequirements 的结果
type UpdateWorkloadResult struct {
	Requirements domain.WorkloadRequirements `json:"requirements" yaml:"requirements"`
}

// GeneratePlansResult generateArchitecturePlans 的结果
type GeneratePlansResult struct {
	Architectures []domain.ArchitectureOption `json:"architectures" yaml:"architectures"`
	Count         int                         `json:"count" yaml:"count"`
}

// GeneratePlansInput generateArchitecturePlans 的参数，UseDefaultWorkload 为空时视为 true
type GeneratePlansInput struct {
	UseDefaultWorkload *bool `json:"useDefaultWorkload,omitempty"`
}

// updateArgs 解码用，整数字段按数字接收以兼容 1e4 / 10000.0 这类写法
type updateArgs struct {
	domain.WorkloadUpdate
	MonthlyRequests *float64 `json:"monthlyRequests,omitempty"`
}

// ToolService 三个工具的实现，会话由调用方显式传入
//
// 工具只修改传入的 *domain.Session，持久化由调用方负责。
type ToolService struct {
	defaults   domain.WorkloadRequirements
	generator  *ArchitectureGenerator
	models     llm.Resolver
	phases     *PhaseTracker
	recorder   metrics.Recorder
	log        logger.Logger
	validators map[string]*schema.Validator
}

// NewToolService 创建工具服务，defaults 为进程级默认工作负载
func NewToolService(
	defaults domain.WorkloadRequirements,
	generator *ArchitectureGenerator,
	models llm.Resolver,
	phases *PhaseTracker,
	recorder metrics.Recorder,
	log logger.Logger,
) *ToolService {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &ToolService{
		defaults:  defaults,
		generator: generator,
		models:    models,
		phases:    phases,
		recorder:  recorder,
		log:       log,
		validators: map[string]*schema.Validator{
			ToolShowDefaultWorkload: schema.NewValidator(schema.EmptyObject()),
			ToolUpdateWorkload:      schema.NewValidator(schema.WorkloadUpdate()),
			ToolGeneratePlans:       schema.NewValidator(schema.GeneratePlans()),
		},
	}
}

// Defaults 进程级默认工作负载
func (s *ToolService) Defaults() domain.WorkloadRequirements {
	return s.defaults
}

// Definitions 返回工具定义，供对话编排和 MCP 服务使用
func (s *ToolService) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(ToolNames))
	for _, name := range ToolNames {
		defs = append(defs, llm.ToolDefinition{
			Name:        name,
			Description: toolDescriptions[name],
			InputSchema: s.validators[name].Schema(),
		})
	}
	return defs
}

// Invoke 校验参数并执行工具，返回可 JSON 序列化的结果
//
// 任何错误都发生在修改会话之前。
func (s *ToolService) Invoke(ctx context.Context, sess *domain.Session, name string, args json.RawMessage) (result any, err error) {
	start := time.Now()
	defer func() {
		label := name
		if _, known := s.validators[name]; !known {
			label = "unknown"
		}
		s.recorder.ObserveTool(label, err, time.Since(start))
		if err != nil {
			s.log.Warn("工具 %s 执行失败: %v", name, err)
		}
	}()

	if sess == nil {
		return nil, ErrNoContext
	}

	validator, ok := s.validators[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}

	args = schema.StripNulls(args)
	if err := validator.Validate(args); err != nil {
		return nil, &SchemaValidationError{Target: name, Err: err}
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	s.log.Debug("会话 %s 调用工具 %s: %s", sess.ID, name, string(args))

	switch name {
	case ToolShowDefaultWorkload:
		return s.showDefaultWorkload(sess), nil

	case ToolUpdateWorkload:
		var in updateArgs
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, &SchemaValidationError{Target: name, Err: err}
		}
		update := in.WorkloadUpdate
		if in.MonthlyRequests != nil {
			// float64(math.MaxInt64) 即 2^63，超出 int64 范围
			if *in.MonthlyRequests >= math.MaxInt64 {
				return nil, &SchemaValidationError{Target: name, Err: fmt.Errorf("monthlyRequests %g exceeds %d", *in.MonthlyRequests, int64(math.MaxInt64))}
			}
			n := int64(*in.MonthlyRequests)
			update.MonthlyRequests = &n
		}
		return s.updateWorkloadRequirements(sess, update)

	case ToolGeneratePlans:
		var in GeneratePlansInput
		if err := json.Unmarshal(args, &in); err != nil {
			return nil, &SchemaValidationError{Target: name, Err: err}
		}
		useDefault := in.UseDefaultWorkload == nil || *in.UseDefaultWorkload
		return s.generateArchitecturePlans(ctx, sess, useDefault)
	}

	return nil, &UnknownToolError{Name: name}
}

// ShowDefaultWorkload showDefaultWorkloadForConfirmation 的类型化入口
func (s *ToolService) ShowDefaultWorkload(ctx context.Context, sess *domain.Session) (*ShowDefaultWorkloadResult, error) {
	res, err := s.Invoke(ctx, sess, ToolShowDefaultWorkload, nil)
	if err != nil {
		return nil, err
	}
	return res.(*ShowDefaultWorkloadResult), nil
}

// UpdateWorkloadRequirements updateWorkloadRequirements 的类型化入口，参数同样经过 schema 校验
func (s *ToolService) UpdateWorkloadRequirements(ctx context.Context, sess *domain.Session, update domain.WorkloadUpdate) (*UpdateWorkloadResult, error) {
	args, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	res, err := s.Invoke(ctx, sess, ToolUpdateWorkload, args)
	if err != nil {
		return nil, err
	}
	return res.(*UpdateWorkloadResult), nil
}

// GenerateArchitecturePlans generateArchitecturePlans 的类型化入口
func (s *ToolService) GenerateArchitecturePlans(ctx context.Context, sess *domain.Session, useDefault bool) (*GeneratePlansResult, error) {
	args, err := json.Marshal(GeneratePlansInput{UseDefaultWorkload: &useDefault})
	if err != nil {
		return nil, fmt.Errorf("encode input: %w", err)
	}
	res, err := s.Invoke(ctx, sess, ToolGeneratePlans, args)
	if err != nil {
		return nil, err
	}
	return res.(*GeneratePlansResult), nil
}

// defaultWorkload 会话的默认工作负载；展示、补全和生成都以它为准
func (s *ToolService) defaultWorkload(sess *domain.Session) domain.WorkloadRequirements {
	if sess.DefaultWorkload == (domain.WorkloadRequirements{}) {
		return s.defaults
	}
	return sess.DefaultWorkload
}

func (s *ToolService) showDefaultWorkload(sess *domain.Session) *ShowDefaultWorkloadResult {
	return &ShowDefaultWorkloadResult{
		Message:  showDefaultMessage,
		Workload: s.defaultWorkload(sess),
		Question: showDefaultQuestion,
	}
}

func (s *ToolService) updateWorkloadRequirements(sess *domain.Session, update domain.WorkloadUpdate) (*UpdateWorkloadResult, error) {
	current := sess.ProjectState.Phase
	if err := s.phases.Check(ToolUpdateWorkload, current, false); err != nil {
		return nil, err
	}

	requirements := ResolveRequirements(update, s.defaultWorkload(sess))

	next := sess.ProjectState.Clone()
	next.Requirements = &requirements
	next.Phase = s.phases.Next(ToolUpdateWorkload, current)

	sess.ProjectState = next
	s.phases.Observe(sess.ID, current, next.Phase)

	return &UpdateWorkloadResult{Requirements: requirements}, nil
}

func (s *ToolService) generateArchitecturePlans(ctx context.Context, sess *domain.Session, useDefault bool) (*GeneratePlansResult, error) {
	current := sess.ProjectState.Phase
	if err := s.phases.Check(ToolGeneratePlans, current, useDefault); err != nil {
		return nil, err
	}

	var requirements domain.WorkloadRequirements
	if useDefault {
		requirements = s.defaultWorkload(sess)
	} else {
		if sess.ProjectState.Requirements == nil {
			return nil, ErrMissingRequirements
		}
		requirements = *sess.ProjectState.Requirements
	}

	if s.models == nil {
		return nil, errors.New("no model resolver configured")
	}
	model, err := s.models.Resolve(ctx, sess.Model)
	if err != nil {
		return nil, err
	}

	options, err := s.generator.Generate(ctx, model, GenerationRequest{
		Requirements:      requirements,
		PreferredProvider: sess.PreferredCloudProvider,
	})
	if err != nil {
		return nil, err
	}

	next := sess.ProjectState.Clone()
	next.Requirements = &requirements
	next.Architectures = options
	next.Phase = s.phases.Next(ToolGeneratePlans, current)

	sess.ProjectState = next
	s.phases.Observe(sess.ID, current, next.Phase)

	return &GeneratePlansResult{Architectures: options, Count: len(options)}, nil
}
