// Package storage checks that the object-storage locations a load reads
// from exist before the warehouse is asked to COPY them.
package storage

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"songdwh/internal/config"
	"songdwh/pkg/errors"
	"songdwh/pkg/models"
)

const scheme = "s3://"

// Location is a bucket plus key or key prefix
type Location struct {
	Bucket string
	Key    string
}

func (l Location) String() string {
	if l.Key == "" {
		return scheme + l.Bucket
	}
	return scheme + l.Bucket + "/" + l.Key
}

// ParseLocation splits an s3:// URI. Surrounding quotes are ignored.
func ParseLocation(raw string) (Location, error) {
	uri := config.Unquote(strings.TrimSpace(raw))
	if !strings.HasPrefix(uri, scheme) {
		return Location{}, errors.New(errors.ErrCodeStorageLocation,
			fmt.Sprintf("Storage location must start with %s", scheme)).
			WithContext("location", raw)
	}

	bucket, key, _ := strings.Cut(strings.TrimPrefix(uri, scheme), "/")
	if bucket == "" {
		return Location{}, errors.New(errors.ErrCodeStorageLocation, "Storage location has no bucket").
			WithContext("location", raw)
	}

	return Location{Bucket: bucket, Key: key}, nil
}

// S3API is the subset of the S3 client the verifier uses
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Verifier checks storage locations
type Verifier struct {
	client S3API
}

// NewVerifier builds a verifier from the default AWS credential chain
func NewVerifier(ctx context.Context, region string) (*Verifier, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageUnavailable, "Failed to load AWS configuration").
			WithSuggestions(
				"Set AWS_PROFILE or AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY",
				"Check ~/.aws/config for a valid region",
			)
	}

	return NewVerifierWithClient(s3.NewFromConfig(cfg)), nil
}

// NewVerifierWithClient wraps an existing client
func NewVerifierWithClient(client S3API) *Verifier {
	return &Verifier{client: client}
}

// VerifyPrefix returns an error unless at least one object exists under loc
func (v *Verifier) VerifyPrefix(ctx context.Context, loc Location) error {
	out, err := v.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(loc.Bucket),
		Prefix:  aws.String(loc.Key),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return storageError(err, loc, "Failed to list storage location")
	}

	if len(out.Contents) == 0 {
		return errors.New(errors.ErrCodeStorageLocation, "No objects found under storage location").
			WithContext("location", loc.String())
	}
	return nil
}

// VerifyObject returns an error unless loc names an existing object
func (v *Verifier) VerifyObject(ctx context.Context, loc Location) error {
	if loc.Key == "" {
		return errors.New(errors.ErrCodeStorageLocation, "Object location has no key").
			WithContext("location", loc.String())
	}

	_, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Key),
	})
	if err != nil {
		var notFound *types.NotFound
		if stderrors.As(err, &notFound) {
			return errors.New(errors.ErrCodeStorageLocation, "Object not found").
				WithContext("location", loc.String())
		}
		return storageError(err, loc, "Failed to read object metadata")
	}
	return nil
}

// Result is the outcome of checking one configured location
type Result struct {
	Name     string
	Location string
	Err      error
}

// OK reports whether the location passed
func (r Result) OK() bool {
	return r.Err == nil
}

// VerifyAll checks the event data prefix, the JSONPaths file and the song
// data prefix, in that order. Every location is checked even after a failure.
func (v *Verifier) VerifyAll(ctx context.Context, cfg *models.Config) []Result {
	checks := []struct {
		name   string
		raw    string
		object bool
	}{
		{"log_data", cfg.S3.LogData, false},
		{"log_jsonpath", cfg.S3.LogJSONPath, true},
		{"song_data", cfg.S3.SongData, false},
	}

	results := make([]Result, 0, len(checks))
	for _, c := range checks {
		result := Result{Name: c.name, Location: c.raw}

		loc, err := ParseLocation(c.raw)
		switch {
		case err != nil:
			result.Err = err
		case c.object:
			result.Err = v.VerifyObject(ctx, loc)
		default:
			result.Err = v.VerifyPrefix(ctx, loc)
		}

		results = append(results, result)
	}
	return results
}

// Failed returns the first error among results, or nil
func Failed(results []Result) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

func storageError(err error, loc Location, msg string) *errors.AppError {
	return errors.Wrap(err, errors.ErrCodeStorageUnavailable, msg).
		WithContext("location", loc.String()).
		WithSuggestions("Check that the credentials can read the bucket", "Check the configured region")
}
