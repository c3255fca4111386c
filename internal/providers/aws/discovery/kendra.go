package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	kendratypes "github.com/aws/aws-sdk-go-v2/service/kendra/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

func listKendraIndices(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := kendra.NewListIndicesPaginator(c.Kendra, &kendra.ListIndicesInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListIndices page: %w", err)
		}
		for _, idx := range page.IndexConfigurationSummaryItems {
			id := aws.ToString(idx.Id)
			r := models.ResourceRecord{
				Service: models.ServiceKendra,
				Type:    models.ResourceIndex,
				Name:    aws.ToString(idx.Name),
				ID:      id,
				ARN:     s.arn("kendra", "index/"+id),
				Status:  string(idx.Status),
			}
			if idx.CreatedAt != nil {
				t := idx.CreatedAt.UTC()
				r.CreatedAt = &t
			}
			s.applyTags(&r, kendraTags(ctx, c.Kendra, r.ARN))
			out = append(out, r)
		}
	}
	return out, nil
}

func kendraTags(ctx context.Context, c kendraClient, arn string) TagLookup {
	out, err := c.ListTagsForResource(ctx, &kendra.ListTagsForResourceInput{ResourceARN: aws.String(arn)})
	if err != nil {
		return tagsFailed(fmt.Errorf("ListTagsForResource %s: %w", arn, err))
	}
	return tagsOK(tagPairs(out.Tags, func(t kendratypes.Tag) (*string, *string) { return t.Key, t.Value }))
}
