package discovery

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
)

// ---------------------------------------------------------------------------
// Narrow client interfaces
//
// Each interface lists only the read-only operations discovery calls. The
// list methods also satisfy the matching SDK v2 paginator API client.
// ---------------------------------------------------------------------------

type lambdaClient interface {
	ListFunctions(ctx context.Context, params *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
	ListTags(ctx context.Context, params *lambda.ListTagsInput, optFns ...func(*lambda.Options)) (*lambda.ListTagsOutput, error)
}

type s3Client interface {
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
	GetBucketTagging(ctx context.Context, params *s3.GetBucketTaggingInput, optFns ...func(*s3.Options)) (*s3.GetBucketTaggingOutput, error)
}

type dynamoDBClient interface {
	ListTables(ctx context.Context, params *dynamodb.ListTablesInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTablesOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	ListTagsOfResource(ctx context.Context, params *dynamodb.ListTagsOfResourceInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ListTagsOfResourceOutput, error)
}

type bedrockAgentClient interface {
	ListAgents(ctx context.Context, params *bedrockagent.ListAgentsInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.ListAgentsOutput, error)
	ListKnowledgeBases(ctx context.Context, params *bedrockagent.ListKnowledgeBasesInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.ListKnowledgeBasesOutput, error)
	ListTagsForResource(ctx context.Context, params *bedrockagent.ListTagsForResourceInput, optFns ...func(*bedrockagent.Options)) (*bedrockagent.ListTagsForResourceOutput, error)
}

type kendraClient interface {
	ListIndices(ctx context.Context, params *kendra.ListIndicesInput, optFns ...func(*kendra.Options)) (*kendra.ListIndicesOutput, error)
	ListTagsForResource(ctx context.Context, params *kendra.ListTagsForResourceInput, optFns ...func(*kendra.Options)) (*kendra.ListTagsForResourceOutput, error)
}

type sageMakerClient interface {
	ListEndpoints(ctx context.Context, params *sagemaker.ListEndpointsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListEndpointsOutput, error)
	ListTags(ctx context.Context, params *sagemaker.ListTagsInput, optFns ...func(*sagemaker.Options)) (*sagemaker.ListTagsOutput, error)
}

type ec2Client interface {
	DescribeInstances(ctx context.Context, params *ec2svc.DescribeInstancesInput, optFns ...func(*ec2svc.Options)) (*ec2svc.DescribeInstancesOutput, error)
}

type rdsClient interface {
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

type elbClient interface {
	DescribeLoadBalancers(ctx context.Context, params *elbv2.DescribeLoadBalancersInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error)
	DescribeTags(ctx context.Context, params *elbv2.DescribeTagsInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeTagsOutput, error)
}

// cwClient serves the best-effort S3 size metric. It must be regional.
type cwClient interface {
	GetMetricStatistics(ctx context.Context, params *cloudwatch.GetMetricStatisticsInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricStatisticsOutput, error)
}

// ---------------------------------------------------------------------------
// clients and factory
// ---------------------------------------------------------------------------

// clients holds every service client needed to discover one account.
type clients struct {
	Lambda       lambdaClient
	S3           s3Client
	DynamoDB     dynamoDBClient
	BedrockAgent bedrockAgentClient
	Kendra       kendraClient
	SageMaker    sageMakerClient
	EC2          ec2Client
	RDS          rdsClient
	ELB          elbClient
	CW           cwClient
}

// clientFactory creates the discovery clients from a regional aws.Config.
type clientFactory func(cfg aws.Config) *clients

// newDefaultClients is the production clientFactory.
func newDefaultClients(cfg aws.Config) *clients {
	return &clients{
		Lambda:       lambda.NewFromConfig(cfg),
		S3:           s3.NewFromConfig(cfg),
		DynamoDB:     dynamodb.NewFromConfig(cfg),
		BedrockAgent: bedrockagent.NewFromConfig(cfg),
		Kendra:       kendra.NewFromConfig(cfg),
		SageMaker:    sagemaker.NewFromConfig(cfg),
		EC2:          ec2svc.NewFromConfig(cfg),
		RDS:          rds.NewFromConfig(cfg),
		ELB:          elbv2.NewFromConfig(cfg),
		CW:           cloudwatch.NewFromConfig(cfg),
	}
}
