package storage

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

// Object is one entry of a bucket listing. With a delimiter, rolled-up
// common prefixes are reported as objects with IsPrefix set.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	LastModified time.Time `json:"last_modified"`
	StorageClass string    `json:"storage_class,omitempty"`
	IsPrefix     bool      `json:"is_prefix,omitempty"`
}

// ListOptions narrows a listing.
type ListOptions struct {
	Prefix     string
	Delimiter  string
	StartAfter string
	// PageSize overrides Config.PageSize.
	PageSize int32
}

// ObjectsFetcher returns a PageFetcher over ListObjectsV2. Page tokens are
// S3 continuation tokens.
func (c *Client) ObjectsFetcher(opts ListOptions) cursor.PageFetcher[Object] {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = c.cfg.PageSize
	}

	return func(ctx context.Context, token string) (cursor.Page[Object], error) {
		in := &awss3.ListObjectsV2Input{
			Bucket:  aws.String(c.cfg.Bucket),
			MaxKeys: aws.Int32(pageSize),
		}
		if opts.Prefix != "" {
			in.Prefix = aws.String(opts.Prefix)
		}
		if opts.Delimiter != "" {
			in.Delimiter = aws.String(opts.Delimiter)
		}
		if token != "" {
			in.ContinuationToken = aws.String(token)
		} else if opts.StartAfter != "" {
			in.StartAfter = aws.String(opts.StartAfter)
		}

		out, err := c.api.ListObjectsV2(ctx, in)
		if err != nil {
			return cursor.Page[Object]{}, classify(err, c.cfg.Bucket)
		}

		items := mergeListing(out.Contents, out.CommonPrefixes)
		next := aws.ToString(out.NextContinuationToken)
		if !aws.ToBool(out.IsTruncated) || next == "" {
			return cursor.Page[Object]{Items: items, Last: true}, nil
		}
		return cursor.Page[Object]{Items: items, NextToken: next}, nil
	}
}

// Objects returns a cursor over the objects selected by opts.
func (c *Client) Objects(opts ListOptions) *cursor.Buffered[Object] {
	return cursor.NewBuffered(c.ObjectsFetcher(opts),
		cursor.WithLogger[Object](c.log.WithFields(logger.Fields(
			logger.FieldOperation, "list_objects",
			"bucket", c.cfg.Bucket,
		))),
	)
}

// mergeListing interleaves contents and common prefixes in key order, the
// order S3 itself uses for a single page.
func mergeListing(contents []types.Object, prefixes []types.CommonPrefix) []Object {
	out := make([]Object, 0, len(contents)+len(prefixes))
	i, j := 0, 0
	for i < len(contents) || j < len(prefixes) {
		if j >= len(prefixes) || (i < len(contents) && aws.ToString(contents[i].Key) < aws.ToString(prefixes[j].Prefix)) {
			o := contents[i]
			out = append(out, Object{
				Key:          aws.ToString(o.Key),
				Size:         aws.ToInt64(o.Size),
				ETag:         aws.ToString(o.ETag),
				LastModified: aws.ToTime(o.LastModified),
				StorageClass: string(o.StorageClass),
			})
			i++
			continue
		}
		out = append(out, Object{Key: aws.ToString(prefixes[j].Prefix), IsPrefix: true})
		j++
	}
	return out
}

// classify marks a missing bucket as permanent so retries stop early.
func classify(err error, bucket string) error {
	var noBucket *types.NoSuchBucket
	if stderrors.As(err, &noBucket) {
		return errors.New(errors.ErrCodeInvalidConfig, "bucket does not exist").
			WithDetail("bucket", bucket).WithCause(err)
	}
	return err
}
