package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagent"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// listBedrockResources lists agents and knowledge bases. The summaries carry
// only IDs, so ARNs are built from the scope. Either listing failing fails
// the whole service.
func listBedrockResources(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	var out []models.ResourceRecord

	agents := bedrockagent.NewListAgentsPaginator(c.BedrockAgent, &bedrockagent.ListAgentsInput{})
	for agents.HasMorePages() {
		page, err := agents.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListAgents page: %w", err)
		}
		for _, a := range page.AgentSummaries {
			id := aws.ToString(a.AgentId)
			r := models.ResourceRecord{
				Service: models.ServiceBedrock,
				Type:    models.ResourceAgent,
				Name:    aws.ToString(a.AgentName),
				ID:      id,
				ARN:     s.arn("bedrock", "agent/"+id),
				Status:  string(a.AgentStatus),
			}
			s.applyTags(&r, bedrockTags(ctx, c.BedrockAgent, r.ARN))
			out = append(out, r)
		}
	}

	kbs := bedrockagent.NewListKnowledgeBasesPaginator(c.BedrockAgent, &bedrockagent.ListKnowledgeBasesInput{})
	for kbs.HasMorePages() {
		page, err := kbs.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListKnowledgeBases page: %w", err)
		}
		for _, kb := range page.KnowledgeBaseSummaries {
			id := aws.ToString(kb.KnowledgeBaseId)
			r := models.ResourceRecord{
				Service: models.ServiceBedrock,
				Type:    models.ResourceKnowledgeBase,
				Name:    aws.ToString(kb.Name),
				ID:      id,
				ARN:     s.arn("bedrock", "knowledge-base/"+id),
				Status:  string(kb.Status),
			}
			s.applyTags(&r, bedrockTags(ctx, c.BedrockAgent, r.ARN))
			out = append(out, r)
		}
	}
	return out, nil
}

func bedrockTags(ctx context.Context, c bedrockAgentClient, arn string) TagLookup {
	out, err := c.ListTagsForResource(ctx, &bedrockagent.ListTagsForResourceInput{ResourceArn: aws.String(arn)})
	if err != nil {
		return tagsFailed(fmt.Errorf("ListTagsForResource %s: %w", arn, err))
	}
	return tagsOK(out.Tags)
}
