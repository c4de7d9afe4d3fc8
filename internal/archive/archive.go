// Package archive copies every committed resume version to S3-compatible
// object storage as JSON plus a plain-text rendering.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/types"
)

// Uploader is the subset of *s3.Client used by the archive.
type Uploader interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures the S3 client.
type Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// Archive writes resume versions to a bucket.
type Archive struct {
	client Uploader
	bucket string
	prefix string
}

// New builds an Archive on top of an existing client.
func New(client Uploader, bucket, prefix string) *Archive {
	if prefix == "" {
		prefix = "resumes"
	}
	return &Archive{client: client, bucket: bucket, prefix: prefix}
}

// Connect loads AWS configuration and returns an Archive. A custom endpoint
// (R2, MinIO) switches the client to path-style addressing.
func Connect(ctx context.Context, opts Options) (*Archive, error) {
	region := opts.Region
	if region == "" {
		region = "auto"
	}
	loaders := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AccessKey != "" {
		loaders = append(loaders, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("error creating aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return New(client, opts.Bucket, opts.Prefix), nil
}

// Keys returns the object keys a version is stored under.
func (a *Archive) Keys(resumeID string, version int) (jsonKey, textKey string) {
	base := path.Join(a.prefix, resumeID, fmt.Sprintf("v%04d", version))
	return base + ".json", base + ".txt"
}

// AfterCommit uploads doc. Both objects are written on every commit.
func (a *Archive) AfterCommit(ctx context.Context, doc *types.ResumeDocument, _ []types.PatchOperation) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal resume: %w", err)
	}
	jsonKey, textKey := a.Keys(doc.ResumeID, doc.Version)

	if err := a.put(ctx, jsonKey, "application/json", payload); err != nil {
		return err
	}
	return a.put(ctx, textKey, "text/plain; charset=utf-8", []byte(parsing.RenderText(doc)))
}

func (a *Archive) put(ctx context.Context, key, contentType string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
