package fetch

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	hferrors "github.com/hydroflow/hydroflow/pkg/errors"
)

// s3Source fetches a file from an s3://bucket/key URL using the default
// AWS credential chain.
type s3Source struct {
	bucket string
	key    string
	region string
	url    string
}

func newS3Source(u *url.URL, opts Options) (*s3Source, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, hferrors.Newf(hferrors.CodeBadRequest,
			"s3 URL needs bucket and key: %s", u.String())
	}
	return &s3Source{
		bucket: u.Host,
		key:    key,
		region: opts.Region,
		url:    u.String(),
	}, nil
}

func (s *s3Source) Location() string {
	return s.url
}

func (s *s3Source) Open(ctx context.Context) (io.ReadCloser, int64, error) {
	var loadOpts []func(*config.LoadOptions) error
	if s.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(s.region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, 0, hferrors.Wrap(err, hferrors.CodeDownloadFailed, "load AWS config")
	}

	client := s3.NewFromConfig(awsCfg)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, 0, hferrors.Wrapf(err, hferrors.CodeDownloadFailed,
			"get s3://%s/%s", s.bucket, s.key)
	}
	return out.Body, aws.ToInt64(out.ContentLength), nil
}
