package models

import "fmt"

// ServiceKey identifies an AWS service tracked by the calculator. The set is
// closed: catalog entries and discovery listers are keyed by these constants.
type ServiceKey string

const (
	// AI services whose spend is attributed in full.
	ServiceBedrock     ServiceKey = "bedrock"
	ServiceKendra      ServiceKey = "kendra"
	ServiceSageMaker   ServiceKey = "sagemaker"
	ServiceComprehend  ServiceKey = "comprehend"
	ServiceTextract    ServiceKey = "textract"
	ServiceRekognition ServiceKey = "rekognition"
	ServiceTranscribe  ServiceKey = "transcribe"
	ServicePolly       ServiceKey = "polly"
	ServiceTranslate   ServiceKey = "translate"

	// Shared infrastructure services where only a fraction is AI-related.
	ServiceLambda     ServiceKey = "lambda"
	ServiceS3         ServiceKey = "s3"
	ServiceDynamoDB   ServiceKey = "dynamodb"
	ServiceEC2        ServiceKey = "ec2"
	ServiceRDS        ServiceKey = "rds"
	ServiceELB        ServiceKey = "elb"
	ServiceAPIGateway ServiceKey = "apigateway"
	ServiceCloudWatch ServiceKey = "cloudwatch"
)

// AllServiceKeys lists every known service in canonical report order.
var AllServiceKeys = []ServiceKey{
	ServiceBedrock,
	ServiceKendra,
	ServiceSageMaker,
	ServiceComprehend,
	ServiceTextract,
	ServiceRekognition,
	ServiceTranscribe,
	ServicePolly,
	ServiceTranslate,
	ServiceLambda,
	ServiceS3,
	ServiceDynamoDB,
	ServiceEC2,
	ServiceRDS,
	ServiceELB,
	ServiceAPIGateway,
	ServiceCloudWatch,
}

// ParseServiceKey returns the ServiceKey named by s, or an error when s is
// not part of the closed set.
func ParseServiceKey(s string) (ServiceKey, error) {
	for _, k := range AllServiceKeys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown service %q", s)
}

// ServiceKind says how much of a service's spend is AI-attributable.
type ServiceKind string

const (
	// ServiceKindFull services are attributed at 100%.
	ServiceKindFull ServiceKind = "full"
	// ServiceKindPartial services are attributed at a configured percentage.
	ServiceKindPartial ServiceKind = "partial"
)

// ServiceCost is the fetched spend of one service for one account and period.
type ServiceCost struct {
	Service     ServiceKey  `json:"service"`
	DisplayName string      `json:"display_name"`
	Kind        ServiceKind `json:"kind"`

	// Total is the Cost Explorer amount for the period.
	Total Amount `json:"total"`

	// AIEstimate is the share of Total considered AI-related before it is
	// split across projects.
	AIEstimate Amount `json:"ai_estimate"`

	// ByTag maps cost-allocation tag values to amounts. The empty key holds
	// untagged spend. Nil when no tag breakdown was available.
	ByTag map[string]Amount `json:"by_tag,omitempty"`

	// TagKey is the cost-allocation tag used to build ByTag.
	TagKey string `json:"tag_key,omitempty"`
}
