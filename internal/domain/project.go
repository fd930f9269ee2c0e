package domain

// Phase 会话所处的阶段
type Phase string

const (
	PhaseCollectingRequirements  Phase = "collecting-requirements"
	PhaseGeneratingArchitectures Phase = "generating-architectures"
	PhaseAwaitingChoice          Phase = "awaiting-choice"
	// PhaseReadyForIaC 预留阶段，目前没有任何操作会进入该阶段
	PhaseReadyForIaC Phase = "ready-for-iac"
)

// Phases 所有阶段，按流程顺序排列
var Phases = []Phase{
	PhaseCollectingRequirements,
	PhaseGeneratingArchitectures,
	PhaseAwaitingChoice,
	PhaseReadyForIaC,
}

// IsValid 检查阶段是否合法
func (p Phase) IsValid() bool {
	for _, valid := range Phases {
		if p == valid {
			return true
		}
	}
	return false
}

// ProjectState 会话中的项目状态
type ProjectState struct {
	Requirements  *WorkloadRequirements `json:"requirements,omitempty" yaml:"requirements,omitempty"` // 当前生效的需求，可能为空
	Architectures []ArchitectureOption  `json:"architectures" yaml:"architectures"`                   // 最近一次生成的方案
	// SelectedArchitectureID 预留字段，目前不会被写入
	SelectedArchitectureID string `json:"selectedArchitectureId,omitempty" yaml:"selectedArchitectureId,omitempty"`
	Phase                  Phase  `json:"phase" yaml:"phase"`
}

// NewProjectState 返回新会话的初始项目状态
func NewProjectState() ProjectState {
	return ProjectState{
		Architectures: []ArchitectureOption{},
		Phase:         PhaseCollectingRequirements,
	}
}

// Clone 深拷贝项目状态
func (s ProjectState) Clone() ProjectState {
	out := s
	if s.Requirements != nil {
		req := *s.Requirements
		out.Requirements = &req
	}
	out.Architectures = make([]ArchitectureOption, len(s.Architectures))
	for i, opt := range s.Architectures {
		comps := make([]ArchitectureComponent, len(opt.Components))
		copy(comps, opt.Components)
		opt.Components = comps
		out.Architectures[i] = opt
	}
	return out
}
