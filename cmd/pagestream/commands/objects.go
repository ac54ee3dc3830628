package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/logger"
	"github.com/kbukum/pagestream/storage"
)

func newObjectsCommand(g *globalFlags) *cobra.Command {
	var (
		bucket string
		opts   storage.ListOptions
	)

	cmd := &cobra.Command{
		Use:     "objects",
		Short:   "Stream the objects of an S3 bucket (ListObjectsV2)",
		Example: `  pagestream objects --bucket logs --prefix 2024/ --delimiter /`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			cfg.Storage.Enabled = true
			if bucket != "" {
				cfg.Storage.Bucket = bucket
			}

			var comp *storage.Component
			return runStream(cmd, g, cfg, stream[storage.Object]{
				name:      "objects " + cfg.Storage.Bucket,
				backend:   "s3",
				component: func(log *logger.Logger) component.Component {
					comp = storage.NewComponent(cfg.Storage, log)
					return comp
				},
				details: fmt.Sprintf("prefix=%q delimiter=%q", opts.Prefix, opts.Delimiter),
				fetcher: func() (cursor.PageFetcher[storage.Object], error) {
					return comp.Client().ObjectsFetcher(opts), nil
				},
				text: formatObject,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&bucket, "bucket", "", "bucket name (overrides storage.bucket)")
	f.StringVar(&opts.Prefix, "prefix", "", "only keys with this prefix")
	f.StringVar(&opts.Delimiter, "delimiter", "", "roll keys up to common prefixes at this delimiter")
	f.StringVar(&opts.StartAfter, "start-after", "", "start listing after this key")
	f.Int32Var(&opts.PageSize, "page-size", 0, "keys per page, at most 1000 (default storage.page_size)")
	return cmd
}

func formatObject(o storage.Object) string {
	if o.IsPrefix {
		return fmt.Sprintf("%-20s %12s  %s", "", "PRE", o.Key)
	}
	return fmt.Sprintf("%-20s %12d  %s", o.LastModified.UTC().Format(time.RFC3339), o.Size, o.Key)
}
