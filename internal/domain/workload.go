package domain

// LatencySensitivity 延迟敏感度
type LatencySensitivity string

const (
	LatencyLow    LatencySensitivity = "low"
	LatencyMedium LatencySensitivity = "medium"
	LatencyHigh   LatencySensitivity = "high"
)

// DataResidency 数据驻留区域
type DataResidency string

const (
	ResidencyUS     DataResidency = "us"
	ResidencyEU     DataResidency = "eu"
	ResidencyGlobal DataResidency = "global"
)

// Sensitivity 优化侧重点
type Sensitivity string

const (
	SensitivityCost        Sensitivity = "cost"
	SensitivityPerformance Sensitivity = "performance"
	SensitivityScalability Sensitivity = "scalability"
)

// Complexity 系统复杂度
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// ArchitectureStyle 架构风格
type ArchitectureStyle string

const (
	StyleMonolithic    ArchitectureStyle = "monolithic"
	StyleMicroservices ArchitectureStyle = "microservices"
	StyleServerless    ArchitectureStyle = "serverless"
)

// LatencySensitivities 所有合法的延迟敏感度取值
var LatencySensitivities = []LatencySensitivity{LatencyLow, LatencyMedium, LatencyHigh}

// DataResidencies 所有合法的数据驻留取值
var DataResidencies = []DataResidency{ResidencyUS, ResidencyEU, ResidencyGlobal}

// Sensitivities 所有合法的优化侧重点取值
var Sensitivities = []Sensitivity{SensitivityCost, SensitivityPerformance, SensitivityScalability}

// Complexities 所有合法的复杂度取值
var Complexities = []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex}

// ArchitectureStyles 所有合法的架构风格取值
var ArchitectureStyles = []ArchitectureStyle{StyleMonolithic, StyleMicroservices, StyleServerless}

// WorkloadRequirements 工作负载需求（九个字段全部必填）
type WorkloadRequirements struct {
	Title              string             `json:"title" yaml:"title"`                           // 标题
	Description        string             `json:"description" yaml:"description"`               // 描述
	MonthlyRequests    int64              `json:"monthlyRequests" yaml:"monthlyRequests"`       // 每月请求数
	DataPerRequestKB   float64            `json:"dataPerRequestKB" yaml:"dataPerRequestKB"`     // 每次请求数据量（KB）
	LatencySensitivity LatencySensitivity `json:"latencySensitivity" yaml:"latencySensitivity"` // 延迟敏感度
	DataResidency      DataResidency      `json:"dataResidency" yaml:"dataResidency"`           // 数据驻留
	Sensitivity        Sensitivity        `json:"sensitivity" yaml:"sensitivity"`               // 优化侧重点
	Complexity         Complexity         `json:"complexity" yaml:"complexity"`                 // 复杂度
	Style              ArchitectureStyle  `json:"style" yaml:"style"`                           // 架构风格
}

// WorkloadUpdate 部分工作负载需求，nil 表示未提供
type WorkloadUpdate struct {
	Title              *string             `json:"title,omitempty" yaml:"title,omitempty"`
	Description        *string             `json:"description,omitempty" yaml:"description,omitempty"`
	MonthlyRequests    *int64              `json:"monthlyRequests,omitempty" yaml:"monthlyRequests,omitempty"`
	DataPerRequestKB   *float64            `json:"dataPerRequestKB,omitempty" yaml:"dataPerRequestKB,omitempty"`
	LatencySensitivity *LatencySensitivity `json:"latencySensitivity,omitempty" yaml:"latencySensitivity,omitempty"`
	DataResidency      *DataResidency      `json:"dataResidency,omitempty" yaml:"dataResidency,omitempty"`
	Sensitivity        *Sensitivity        `json:"sensitivity,omitempty" yaml:"sensitivity,omitempty"`
	Complexity         *Complexity         `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Style              *ArchitectureStyle  `json:"style,omitempty" yaml:"style,omitempty"`
}

// IsEmpty 是否没有提供任何字段
func (u WorkloadUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.MonthlyRequests == nil &&
		u.DataPerRequestKB == nil && u.LatencySensitivity == nil && u.DataResidency == nil &&
		u.Sensitivity == nil && u.Complexity == nil && u.Style == nil
}

// DefaultWorkload 返回内置的默认工作负载
func DefaultWorkload() WorkloadRequirements {
	return WorkloadRequirements{
		Title:              "basic website",
		Description:        "serving static content with occasional dynamic requests",
		MonthlyRequests:    10000,
		DataPerRequestKB:   10,
		LatencySensitivity: LatencyLow,
		DataResidency:      ResidencyGlobal,
		Sensitivity:        SensitivityCost,
		Complexity:         ComplexitySimple,
		Style:              StyleMonolithic,
	}
}

// WorkloadFieldNames 工作负载字段名（与 JSON 名称一致）
var WorkloadFieldNames = []string{
	"title",
	"description",
	"monthlyRequests",
	"dataPerRequestKB",
	"latencySensitivity",
	"dataResidency",
	"sensitivity",
	"complexity",
	"style",
}
