package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	smtypes "github.com/aws/aws-sdk-go-v2/service/sagemaker/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// listSageMakerEndpoints lists inference endpoints, the dominant SageMaker
// cost driver.
func listSageMakerEndpoints(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := sagemaker.NewListEndpointsPaginator(c.SageMaker, &sagemaker.ListEndpointsInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListEndpoints page: %w", err)
		}
		for _, ep := range page.Endpoints {
			r := models.ResourceRecord{
				Service: models.ServiceSageMaker,
				Type:    models.ResourceEndpoint,
				Name:    aws.ToString(ep.EndpointName),
				ARN:     aws.ToString(ep.EndpointArn),
				Status:  string(ep.EndpointStatus),
			}
			if ep.CreationTime != nil {
				t := ep.CreationTime.UTC()
				r.CreatedAt = &t
			}
			s.applyTags(&r, sageMakerTags(ctx, c.SageMaker, r.ARN))
			out = append(out, r)
		}
	}
	return out, nil
}

func sageMakerTags(ctx context.Context, c sageMakerClient, arn string) TagLookup {
	if arn == "" {
		return tagsOK(nil)
	}
	out, err := c.ListTags(ctx, &sagemaker.ListTagsInput{ResourceArn: aws.String(arn)})
	if err != nil {
		return tagsFailed(fmt.Errorf("ListTags %s: %w", arn, err))
	}
	return tagsOK(tagPairs(out.Tags, func(t smtypes.Tag) (*string, *string) { return t.Key, t.Value }))
}
