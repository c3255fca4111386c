package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	rdssvc "github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// listRDSInstances pages through every DB instance. Tags arrive inline in
// TagList.
func listRDSInstances(ctx context.Context, c *clients, _ scope) ([]models.ResourceRecord, error) {
	p := rdssvc.NewDescribeDBInstancesPaginator(c.RDS, &rdssvc.DescribeDBInstancesInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeDBInstances page: %w", err)
		}
		for _, db := range page.DBInstances {
			out = append(out, toDBInstanceRecord(db))
		}
	}
	return out, nil
}

func toDBInstanceRecord(db rdstypes.DBInstance) models.ResourceRecord {
	r := models.ResourceRecord{
		Service: models.ServiceRDS,
		Type:    models.ResourceDBInstance,
		Name:    aws.ToString(db.DBInstanceIdentifier),
		ID:      aws.ToString(db.DbiResourceId),
		ARN:     aws.ToString(db.DBInstanceArn),
		Status:  aws.ToString(db.DBInstanceStatus),
		Tags:    tagPairs(db.TagList, func(t rdstypes.Tag) (*string, *string) { return t.Key, t.Value }),
	}
	if db.InstanceCreateTime != nil {
		t := db.InstanceCreateTime.UTC()
		r.CreatedAt = &t
	}
	return r
}
