package service

import (
	"github.com/lucksec/cloudarchitect/internal/domain"
	"github.com/lucksec/cloudarchitect/internal/logger"
	"github.com/lucksec/cloudarchitect/internal/metrics"
)

// PhaseTracker 决定工具成功后会话进入的阶段
//
// 默认不限制调用顺序；enforce 为 true 时拒绝明显越序的调用。
type PhaseTracker struct {
	enforce  bool
	recorder metrics.Recorder
	log      logger.Logger
}

// NewPhaseTracker 创建阶段跟踪器
func NewPhaseTracker(enforce bool, recorder metrics.Recorder, log logger.Logger) *PhaseTracker {
	if recorder == nil {
		recorder = metrics.NopRecorder{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &PhaseTracker{enforce: enforce, recorder: recorder, log: log}
}

// Enforced 是否启用顺序检查
func (p *PhaseTracker) Enforced() bool {
	return p.enforce
}

// Check 严格模式下检查工具能否在当前阶段执行
//
// 规则：ready-for-iac 之后不再接受修改；collecting-requirements 阶段只能使用默认工作负载生成。
func (p *PhaseTracker) Check(tool string, current domain.Phase, useDefault bool) error {
	if !p.enforce {
		return nil
	}
	switch tool {
	case ToolUpdateWorkload:
		if current == domain.PhaseReadyForIaC {
			return &PhaseOrderError{Tool: tool, Phase: current}
		}
	case ToolGeneratePlans:
		if current == domain.PhaseReadyForIaC {
			return &PhaseOrderError{Tool: tool, Phase: current}
		}
		if !useDefault && current == domain.PhaseCollectingRequirements {
			return &PhaseOrderError{Tool: tool, Phase: current}
		}
	}
	return nil
}

// Next 工具成功后的阶段
func (p *PhaseTracker) Next(tool string, current domain.Phase) domain.Phase {
	switch tool {
	case ToolUpdateWorkload:
		return domain.PhaseGeneratingArchitectures
	case ToolGeneratePlans:
		return domain.PhaseAwaitingChoice
	default:
		return current
	}
}

// Observe 记录阶段变化
func (p *PhaseTracker) Observe(sessionID string, from, to domain.Phase) {
	if from == to {
		return
	}
	p.log.Info("会话 %s 阶段切换: %s -> %s", sessionID, from, to)
	p.recorder.ObservePhase(string(from), string(to))
}
