package preflight

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"
	"golang.org/x/sync/errgroup"

	"github.com/evalgrid/evalgrid/internal/config"
	"github.com/evalgrid/evalgrid/internal/ctxlog"
)

// S3API is the subset of the object-store client the checker uses.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// STSAPI is the subset of the identity client the checker uses.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// Checker verifies run prerequisites against the platform.
type Checker struct {
	s3     S3API
	sts    STSAPI
	region string
}

// NewChecker creates a preflight checker for the given region.
func NewChecker(s3api S3API, stsapi STSAPI, region string) *Checker {
	return &Checker{s3: s3api, sts: stsapi, region: region}
}

// DefaultBucket resolves the account's conventional artifact bucket,
// `sagemaker-<region>-<account>`, mirroring what the platform SDK calls the
// session default bucket.
func (c *Checker) DefaultBucket(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve caller identity: %w", err)
	}
	return fmt.Sprintf("sagemaker-%s-%s", c.region, aws.ToString(out.Account)), nil
}

// CheckInputs verifies that the dataset location and every fine-tuning
// train/validation location under the input data root exist in the object
// store. Locations are checked concurrently; the first problem aborts the run.
func (c *Checker) CheckInputs(ctx context.Context, model *config.Model, inputDataPath string) error {
	logger := ctxlog.FromContext(ctx)

	locations := []string{inputDataPath + "/" + model.Dataset.InputDataLocation}
	for i := range model.Models {
		if ft := model.Models[i].Finetuning; ft != nil {
			locations = append(locations,
				inputDataPath+"/"+ft.TrainDataPath,
				inputDataPath+"/"+ft.ValidationDataPath,
			)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, location := range locations {
		location := location
		g.Go(func() error {
			bucket, key, err := splitPath(location)
			if err != nil {
				return err
			}

			out, err := c.s3.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
				Bucket:  aws.String(bucket),
				Prefix:  aws.String(key),
				MaxKeys: aws.Int32(1),
			})
			if err != nil {
				var apiErr smithy.APIError
				if errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket" {
					return fmt.Errorf("input data bucket '%s' does not exist", bucket)
				}
				return fmt.Errorf("failed to check input data at '%s': %w", location, err)
			}
			if aws.ToInt32(out.KeyCount) == 0 {
				return fmt.Errorf("no input data found at '%s'", location)
			}

			logger.Debug("Input data location verified.", "location", location)
			return nil
		})
	}
	return g.Wait()
}

// splitPath splits an s3://bucket/key location into its bucket and key.
func splitPath(location string) (bucket, key string, err error) {
	trimmed, ok := strings.CutPrefix(location, "s3://")
	if !ok {
		return "", "", fmt.Errorf("input data location '%s' is not an s3:// path", location)
	}

	bucket, key, _ = strings.Cut(trimmed, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("input data location '%s' is missing a bucket or key", location)
	}
	return bucket, key, nil
}
