package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// lambdaTimeLayout is the format of FunctionConfiguration.LastModified.
const lambdaTimeLayout = "2006-01-02T15:04:05.000-0700"

// listLambdaFunctions pages through every function in the region.
func listLambdaFunctions(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := lambda.NewListFunctionsPaginator(c.Lambda, &lambda.ListFunctionsInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListFunctions page: %w", err)
		}
		for _, fn := range page.Functions {
			r := toLambdaRecord(fn)
			s.applyTags(&r, lambdaTags(ctx, c.Lambda, r.ARN))
			out = append(out, r)
		}
	}
	return out, nil
}

func toLambdaRecord(fn lambdatypes.FunctionConfiguration) models.ResourceRecord {
	r := models.ResourceRecord{
		Service: models.ServiceLambda,
		Type:    models.ResourceFunction,
		Name:    aws.ToString(fn.FunctionName),
		ARN:     aws.ToString(fn.FunctionArn),
		Status:  string(fn.State),
	}
	if t, err := time.Parse(lambdaTimeLayout, aws.ToString(fn.LastModified)); err == nil {
		t = t.UTC()
		r.ModifiedAt = &t
	}
	return r
}

func lambdaTags(ctx context.Context, c lambdaClient, arn string) TagLookup {
	if arn == "" {
		return tagsOK(nil)
	}
	out, err := c.ListTags(ctx, &lambda.ListTagsInput{Resource: aws.String(arn)})
	if err != nil {
		return tagsFailed(fmt.Errorf("ListTags %s: %w", arn, err))
	}
	return tagsOK(out.Tags)
}
