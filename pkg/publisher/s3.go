package publisher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"gatecontrol-hq/gatecontrol/pkg/config"
)

// S3Mirror uploads each published artifact to an S3-compatible bucket under
// <prefix><envID>/<fileName>.
type S3Mirror struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Mirror creates an S3Mirror using the default AWS credential chain.
func NewS3Mirror(ctx context.Context, cfg config.S3MirrorConfig) (*S3Mirror, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Mirror{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

// Name implements Mirror.
func (m *S3Mirror) Name() string { return "s3" }

// Key returns the object key for an environment's artifact.
func (m *S3Mirror) Key(envID, fileName string) string {
	prefix := m.prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + envID + "/" + fileName
}

// Mirror implements Mirror.
func (m *S3Mirror) Mirror(ctx context.Context, artifact Artifact) error {
	key := m.Key(artifact.EnvironmentID, artifact.FileName)
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(artifact.Data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"config-hash":  artifact.Record.ConfigHash,
			"published-by": artifact.Record.PublishedBy,
			"publish-id":   artifact.Record.ID,
		},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, key, err)
	}
	return nil
}
