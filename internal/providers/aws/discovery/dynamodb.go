package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// listDynamoDBTables pages through table names and describes each one for
// its ARN, status and creation time. A failed DescribeTable keeps the table
// with a synthesised ARN.
func listDynamoDBTables(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := dynamodb.NewListTablesPaginator(c.DynamoDB, &dynamodb.ListTablesInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListTables page: %w", err)
		}
		for _, name := range page.TableNames {
			r := models.ResourceRecord{
				Service: models.ServiceDynamoDB,
				Type:    models.ResourceTable,
				Name:    name,
				ARN:     s.arn("dynamodb", "table/"+name),
			}
			desc, err := c.DynamoDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
			if err != nil {
				s.logger.Debug().Str("table", name).Err(err).Msg("DescribeTable failed")
			} else if desc.Table != nil {
				applyTableDescription(&r, desc.Table)
			}
			s.applyTags(&r, tableTags(ctx, c.DynamoDB, r.ARN))
			out = append(out, r)
		}
	}
	return out, nil
}

func applyTableDescription(r *models.ResourceRecord, t *ddbtypes.TableDescription) {
	if arn := aws.ToString(t.TableArn); arn != "" {
		r.ARN = arn
	}
	r.Status = string(t.TableStatus)
	if t.CreationDateTime != nil {
		ct := t.CreationDateTime.UTC()
		r.CreatedAt = &ct
	}
}

func tableTags(ctx context.Context, c dynamoDBClient, arn string) TagLookup {
	out, err := c.ListTagsOfResource(ctx, &dynamodb.ListTagsOfResourceInput{ResourceArn: aws.String(arn)})
	if err != nil {
		return tagsFailed(fmt.Errorf("ListTagsOfResource %s: %w", arn, err))
	}
	return tagsOK(tagPairs(out.Tags, func(t ddbtypes.Tag) (*string, *string) { return t.Key, t.Value }))
}
