package optimize

import "github.com/pankaj-dahiya-devops/aicost/internal/models"

// Effort is the implementation effort of a recommendation.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
)

// Technique is a canned cost reduction for one service. Savings is the
// fraction of the service cost it is expected to save.
type Technique struct {
	Name        string
	Description string
	Savings     float64
	Effort      Effort
	Timeline    string
}

// Alternative is a replacement service suggested once a service's cost
// exceeds AlternativeThreshold.
type Alternative struct {
	Service string
	UseCase string
	Savings float64
}

// techniques lists the canned techniques per service in presentation order.
var techniques = map[models.ServiceKey][]Technique{
	models.ServiceBedrock: {
		{"Batch Processing", "Process multiple requests in batch mode", 0.5, EffortMedium, "1-2 weeks"},
		{"Prompt Caching", "Cache repeated prompts and contexts", 0.9, EffortLow, "2-3 days"},
		{"Provisioned Throughput", "Use provisioned throughput for consistent workloads", 0.5, EffortLow, "1 day"},
		{"Model Routing", "Route queries to appropriate models based on complexity", 0.65, EffortHigh, "2-4 weeks"},
	},
	models.ServiceKendra: {
		{"Index Optimization", "Reduce indexed content and optimize sync schedules", 0.3, EffortMedium, "1 week"},
		{"Query Caching", "Cache frequent query results", 0.4, EffortMedium, "1-2 weeks"},
		{"Relevance Tuning", "Filter documents before indexing", 0.25, EffortLow, "3-5 days"},
	},
	models.ServiceSageMaker: {
		{"Spot Instances", "Use spot instances for training", 0.9, EffortLow, "1 day"},
		{"Multi-Model Endpoints", "Host multiple models on a single endpoint", 0.5, EffortMedium, "1 week"},
		{"Auto Scaling", "Scale endpoints with demand", 0.4, EffortMedium, "3-5 days"},
		{"Graviton Instances", "Use AWS Graviton instances", 0.2, EffortLow, "1-2 days"},
	},
	models.ServiceLambda: {
		{"Memory Optimization", "Right-size function memory", 0.3, EffortLow, "1 day"},
		{"Async Processing", "Use asynchronous invocations", 0.2, EffortMedium, "3-5 days"},
		{"Graviton Runtime", "Run functions on arm64", 0.2, EffortLow, "1 day"},
	},
}

// alternatives lists replacement services per service.
var alternatives = map[models.ServiceKey][]Alternative{
	models.ServiceKendra: {
		{"OpenSearch", "Basic search without advanced NLP", 0.8},
		{"Elastic", "Custom search implementation", 0.75},
	},
}

// Techniques returns the canned techniques for svc.
func Techniques(svc models.ServiceKey) []Technique {
	return techniques[svc]
}
