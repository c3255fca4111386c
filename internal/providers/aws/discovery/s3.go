package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// bucketSizeWindow is how far back the BucketSizeBytes metric is read.
// S3 publishes it once a day.
const bucketSizeWindow = 3 * 24 * time.Hour

// listS3Buckets lists every bucket owned by the account and enriches each
// with its CloudWatch size, read in the bucket's own region.
func listS3Buckets(ctx context.Context, c *clients, s scope) ([]models.ResourceRecord, error) {
	p := s3.NewListBucketsPaginator(c.S3, &s3.ListBucketsInput{})

	var out []models.ResourceRecord
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("ListBuckets page: %w", err)
		}
		for _, b := range page.Buckets {
			r := toBucketRecord(b)
			s.applyTags(&r, bucketTags(ctx, c.S3, r.Name))

			region := aws.ToString(b.BucketRegion)
			cw := s.clientsIn(c, region).CW
			size, err := bucketSize(ctx, cw, r.Name, time.Now().UTC())
			if err != nil {
				s.logger.Debug().Str("bucket", r.Name).Str("region", region).Err(err).Msg("bucket size unavailable")
			}
			r.SizeBytes = size
			out = append(out, r)
		}
	}
	return out, nil
}

func toBucketRecord(b s3types.Bucket) models.ResourceRecord {
	name := aws.ToString(b.Name)
	r := models.ResourceRecord{
		Service: models.ServiceS3,
		Type:    models.ResourceBucket,
		Name:    name,
		ARN:     "arn:aws:s3:::" + name,
	}
	if b.CreationDate != nil {
		t := b.CreationDate.UTC()
		r.CreatedAt = &t
	}
	return r
}

// bucketTags fails with NoSuchTagSet for untagged buckets; callers treat
// that the same as any other lookup failure.
func bucketTags(ctx context.Context, c s3Client, bucket string) TagLookup {
	out, err := c.GetBucketTagging(ctx, &s3.GetBucketTaggingInput{Bucket: aws.String(bucket)})
	if err != nil {
		return tagsFailed(fmt.Errorf("GetBucketTagging %s: %w", bucket, err))
	}
	return tagsOK(tagPairs(out.TagSet, func(t s3types.Tag) (*string, *string) { return t.Key, t.Value }))
}

// bucketSize returns the average StandardStorage BucketSizeBytes over the
// recent window. 0 means unknown.
func bucketSize(ctx context.Context, cw cwClient, bucket string, now time.Time) (int64, error) {
	out, err := cw.GetMetricStatistics(ctx, &cloudwatch.GetMetricStatisticsInput{
		Namespace:  aws.String("AWS/S3"),
		MetricName: aws.String("BucketSizeBytes"),
		Dimensions: []cwtypes.Dimension{
			{Name: aws.String("BucketName"), Value: aws.String(bucket)},
			{Name: aws.String("StorageType"), Value: aws.String("StandardStorage")},
		},
		StartTime:  aws.Time(now.Add(-bucketSizeWindow)),
		EndTime:    aws.Time(now),
		Period:     aws.Int32(86400),
		Statistics: []cwtypes.Statistic{cwtypes.StatisticAverage},
	})
	if err != nil {
		return 0, fmt.Errorf("GetMetricStatistics BucketSizeBytes: %w", err)
	}

	var total float64
	var count int
	for _, dp := range out.Datapoints {
		if dp.Average != nil {
			total += *dp.Average
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return int64(total / float64(count)), nil
}
