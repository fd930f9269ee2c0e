package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucksec/cloudarchitect/internal/domain"
)

// 工具名
const (
	ToolShowDefaultWorkload = "showDefaultWorkloadForConfirmation"
	ToolUpdateWorkload      = "updateWorkloadRequirements"
	ToolGeneratePlans       = "generateArchitecturePlans"
)

// ToolNames 所有工具名
var ToolNames = []string{ToolShowDefaultWorkload, ToolUpdateWorkload, ToolGeneratePlans}

var toolDescriptions = map[string]string{
	ToolShowDefaultWorkload: "Show the default workload requirements to the user for confirmation",
	ToolUpdateWorkload:      "Update the workload requirements based on user input. Fields that are not provided fall back to the default workload.",
	ToolGeneratePlans:       "Generate architecture plans based on current workload requirements",
}

const (
	showDefaultMessage  = "Here are the default workload details:\n"
	showDefaultQuestion = "Would you like to proceed with these default settings?"
)

// SystemPrompt 对话编排使用的系统提示词
func SystemPrompt(preferred domain.ProviderName) string {
	return fmt.Sprintf(`You are an expert multi-cloud solutions architect. The user's preferred cloud provider is %s.

When the user asks to generate architecture plans:
1. First call %s to show the default workload.
2. If the user confirms, call %s with useDefaultWorkload: true.
3. If the user wants to customize, ask clarifying questions about the workload (traffic, data size, latency, regions, compliance) whenever required, then call %s with what you learned.
4. Then call %s with useDefaultWorkload: false.

When presenting the generated options:
- Cover a Cloudflare-centric option (Workers, Durable Objects, R2, Vectorize, Workers AI), a single-cloud option (AWS or GCP) and a hybrid option (Cloudflare plus one hyperscaler) where they make sense.
- Explain tradeoffs in plain language: cost, latency, complexity and vendor lock-in.

If a tool returns an error, explain the problem to the user and ask for what is missing instead of retrying blindly.`,
		preferred, ToolShowDefaultWorkload, ToolGeneratePlans, ToolUpdateWorkload, ToolGeneratePlans)
}

// BuildGenerationPrompt 架构生成的指令
func BuildGenerationPrompt(req GenerationRequest) string {
	reqJSON, _ := json.MarshalIndent(req.Requirements, "", "  ")

	var b strings.Builder
	b.WriteString("Generate 2-3 cloud architecture options based on these requirements:\n\n")
	fmt.Fprintf(&b, "Requirements: %s\n\n", reqJSON)
	fmt.Fprintf(&b, "Preferred cloud provider: %s\n\n", req.PreferredProvider)
	b.WriteString(`Consider factors like:
- Expected traffic and scale
- Budget constraints
- Performance requirements
- Geographic distribution needs
- Data residency and compliance
- Application complexity and architecture style

Provide diverse options (serverless, containerized, traditional) with different cost/performance tradeoffs in the preferred cloud provider's technologies.
Additionally generate one architecture option using a Cloudflare-first approach, ONLY if you think the use case would have a better impact or lower cost compared to the standard cloud provider technologies.

Component ids must be unique within an option. Use kind tags such as cf_worker, cf_vectorize, cf_kv, aws_lambda, aws_sqs, aws_dynamodb, gcp_cloud_run, gcp_pubsub, gcp_firestore or docker_service, and provider tags cloudflare, aws, gcp or multi-cloud. Put sizing and settings in each component's config object.`)
	return b.String()
}
