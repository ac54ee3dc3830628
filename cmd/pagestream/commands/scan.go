package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
	"github.com/kbukum/pagestream/redis"
)

func newScanCommand(g *globalFlags) *cobra.Command {
	var (
		opts              redis.ScanOptions
		addr              string
		set, hash, sorted string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Stream Redis keys (SCAN) or the members of one set, hash or sorted set",
		Example: `  pagestream scan --match 'user:*'
  pagestream scan --hash profile:42 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			cfg.Redis.Enabled = true
			if addr != "" {
				cfg.Redis.Addr = addr
			}

			chosen := 0
			for _, k := range []string{set, hash, sorted} {
				if k != "" {
					chosen++
				}
			}
			if chosen > 1 {
				return errors.InvalidConfig("scan", "--set, --hash and --zset are mutually exclusive")
			}

			var comp *redis.Component
			newComp := func(log *logger.Logger) component.Component {
				comp = redis.NewComponent(cfg.Redis, log)
				return comp
			}
			details := fmt.Sprintf("match=%q count=%d", opts.Match, opts.Count)

			switch {
			case set != "":
				return runStream(cmd, g, cfg, stream[string]{
					name: "sscan " + set, backend: "redis", details: details, component: newComp,
					fetcher: func() (cursor.PageFetcher[string], error) {
						return comp.Client().SetFetcher(set, opts), nil
					},
					text: func(s string) string { return s },
				})
			case hash != "":
				return runStream(cmd, g, cfg, stream[redis.HashEntry]{
					name: "hscan " + hash, backend: "redis", details: details, component: newComp,
					fetcher: func() (cursor.PageFetcher[redis.HashEntry], error) {
						return comp.Client().HashFetcher(hash, opts), nil
					},
					text: func(e redis.HashEntry) string { return e.Field + "\t" + e.Value },
				})
			case sorted != "":
				return runStream(cmd, g, cfg, stream[redis.ScoredMember]{
					name: "zscan " + sorted, backend: "redis", details: details, component: newComp,
					fetcher: func() (cursor.PageFetcher[redis.ScoredMember], error) {
						return comp.Client().SortedSetFetcher(sorted, opts), nil
					},
					text: func(m redis.ScoredMember) string {
						return m.Member + "\t" + strconv.FormatFloat(m.Score, 'g', -1, 64)
					},
				})
			default:
				if opts.Type != "" {
					details += " type=" + opts.Type
				}
				return runStream(cmd, g, cfg, stream[string]{
					name: "scan", backend: "redis", details: details, component: newComp,
					fetcher: func() (cursor.PageFetcher[string], error) {
						return comp.Client().KeysFetcher(opts), nil
					},
					text: func(s string) string { return s },
				})
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "redis address (overrides redis.addr)")
	f.StringVar(&opts.Match, "match", "", "glob pattern")
	f.Int64Var(&opts.Count, "count", 0, "COUNT hint per call (default redis.scan_count)")
	f.StringVar(&opts.Type, "type", "", "only keys of this type (SCAN only)")
	f.StringVar(&set, "set", "", "scan the members of this set (SSCAN)")
	f.StringVar(&hash, "hash", "", "scan the fields of this hash (HSCAN)")
	f.StringVar(&sorted, "zset", "", "scan the members of this sorted set (ZSCAN)")
	return cmd
}
