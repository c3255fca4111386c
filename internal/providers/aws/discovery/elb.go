package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2svc "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/samber/lo"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// describeTagsBatch is the DescribeTags limit on ResourceArns per call.
const describeTagsBatch = 20

// listLoadBalancers pages through ELBv2 load balancers (Application,
// Network, Gateway), then fetches their tags in batches.
func listLoadBalancers(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := elbv2svc.NewDescribeLoadBalancersPaginator(c.ELB, &elbv2svc.DescribeLoadBalancersInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeLoadBalancers page: %w", err)
		}
		for _, lb := range page.LoadBalancers {
			out = append(out, toLoadBalancerRecord(lb))
		}
	}

	arns := lo.FilterMap(out, func(r models.ResourceRecord, _ int) (string, bool) { return r.ARN, r.ARN != "" })
	lookups := loadBalancerTags(ctx, c.ELB, arns)
	for i := range out {
		l, ok := lookups[out[i].ARN]
		if !ok {
			l = tagsOK(nil)
		}
		s.applyTags(&out[i], l)
	}
	return out, nil
}

func toLoadBalancerRecord(lb elbv2types.LoadBalancer) models.ResourceRecord {
	r := models.ResourceRecord{
		Service: models.ServiceELB,
		Type:    models.ResourceLoadBalancer,
		Name:    aws.ToString(lb.LoadBalancerName),
		ARN:     aws.ToString(lb.LoadBalancerArn),
	}
	if lb.State != nil {
		r.Status = string(lb.State.Code)
	}
	if lb.CreatedTime != nil {
		t := lb.CreatedTime.UTC()
		r.CreatedAt = &t
	}
	return r
}

// loadBalancerTags returns one TagLookup per ARN. A failed batch marks
// every ARN in it as failed.
func loadBalancerTags(ctx context.Context, c elbClient, arns []string) map[string]TagLookup {
	out := make(map[string]TagLookup, len(arns))
	for _, batch := range lo.Chunk(arns, describeTagsBatch) {
		resp, err := c.DescribeTags(ctx, &elbv2svc.DescribeTagsInput{ResourceArns: batch})
		if err != nil {
			failed := tagsFailed(fmt.Errorf("DescribeTags: %w", err))
			for _, arn := range batch {
				out[arn] = failed
			}
			continue
		}
		for _, d := range resp.TagDescriptions {
			out[aws.ToString(d.ResourceArn)] = tagsOK(tagPairs(d.Tags, func(t elbv2types.Tag) (*string, *string) { return t.Key, t.Value }))
		}
	}
	return out
}
