package discovery

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// listEC2Instances pages through running and stopped instances. Tags come
// inline with DescribeInstances, so no extra lookup is made. The Name tag,
// when present, is the record name used for pattern matching.
func listEC2Instances(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	input := &ec2svc.DescribeInstancesInput{
		Filters: []ec2types.Filter{
			{
				Name:   aws.String("instance-state-name"),
				Values: []string{"pending", "running", "stopping", "stopped"},
			},
		},
	}
	p := ec2svc.NewDescribeInstancesPaginator(c.EC2, input)

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("DescribeInstances page: %w", err)
		}
		for _, reservation := range page.Reservations {
			for _, inst := range reservation.Instances {
				out = append(out, toInstanceRecord(inst, s))
			}
		}
	}
	return out, nil
}

func toInstanceRecord(inst ec2types.Instance, s scope) models.ResourceRecord {
	id := aws.ToString(inst.InstanceId)
	tags := tagPairs(inst.Tags, func(t ec2types.Tag) (*string, *string) { return t.Key, t.Value })

	name := tags["Name"]
	if name == "" {
		name = id
	}

	r := models.ResourceRecord{
		Service: models.ServiceEC2,
		Type:    models.ResourceInstance,
		Name:    name,
		ID:      id,
		ARN:     s.arn("ec2", "instance/"+id),
		Tags:    tags,
	}
	if inst.State != nil {
		r.Status = string(inst.State.Name)
	}
	if inst.LaunchTime != nil {
		t := inst.LaunchTime.UTC()
		r.CreatedAt = &t
	}
	return r
}
