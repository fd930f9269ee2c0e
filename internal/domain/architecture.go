package domain

// ProviderName 架构组件所属云平台
type ProviderName string

const (
	ProviderCloudflare ProviderName = "cloudflare"
	ProviderAWS        ProviderName = "aws"
	ProviderGCP        ProviderName = "gcp"
	ProviderMultiCloud ProviderName = "multi-cloud"
)

// ResourceKind 资源类型标签，列表之外的取值同样合法
type ResourceKind string

const (
	KindCFWorker      ResourceKind = "cf_worker"
	KindCFVectorize   ResourceKind = "cf_vectorize"
	KindCFKV          ResourceKind = "cf_kv"
	KindAWSLambda     ResourceKind = "aws_lambda"
	KindAWSSQS        ResourceKind = "aws_sqs"
	KindAWSDynamoDB   ResourceKind = "aws_dynamodb"
	KindGCPCloudRun   ResourceKind = "gcp_cloud_run"
	KindGCPPubSub     ResourceKind = "gcp_pubsub"
	KindGCPFirestore  ResourceKind = "gcp_firestore"
	KindDockerService ResourceKind = "docker_service"
)

// KnownProviders 已知的云平台标签
var KnownProviders = []ProviderName{ProviderCloudflare, ProviderAWS, ProviderGCP, ProviderMultiCloud}

// KnownResourceKinds 已知的资源类型标签
var KnownResourceKinds = []ResourceKind{
	KindCFWorker, KindCFVectorize, KindCFKV,
	KindAWSLambda, KindAWSSQS, KindAWSDynamoDB,
	KindGCPCloudRun, KindGCPPubSub, KindGCPFirestore,
	KindDockerService,
}

// ArchitectureComponent 架构方案中的一个组件
type ArchitectureComponent struct {
	ID       string         `json:"id" yaml:"id"`                             // 方案内唯一
	Kind     ResourceKind   `json:"kind" yaml:"kind"`                         // 资源类型
	Provider ProviderName   `json:"provider" yaml:"provider"`                 // 云平台
	Name     string         `json:"name" yaml:"name"`                         // 名称
	Config   map[string]any `json:"config,omitempty" yaml:"config,omitempty"` // 任意配置
}

// ArchitectureOption 一个候选架构方案
type ArchitectureOption struct {
	ID         string                  `json:"id" yaml:"id"`
	Name       string                  `json:"name" yaml:"name"`
	Summary    string                  `json:"summary" yaml:"summary"`
	Components []ArchitectureComponent `json:"components" yaml:"components"`
}
