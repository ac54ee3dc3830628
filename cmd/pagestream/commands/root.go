package commands

import (
	"github.com/spf13/cobra"
)

// globalFlags are shared by every streaming command.
type globalFlags struct {
	configFile   string
	envFile      string
	lowWaterMark int
	noPrefetch   bool
	scheduler    string
	limit        int
	batch        int
	output       string
	telemetry    bool
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&globalFlags{})
}

func newRootCmd(g *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pagestream",
		Short:         "Stream paginated backend listings through a prefetching cursor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "config file (default: search ., ./cmd/pagestream, ./config, user config dir)")
	pf.StringVar(&g.envFile, "env-file", "", ".env file to load")
	pf.IntVar(&g.lowWaterMark, "low-water-mark", 0, "prefetch the next page below this many buffered elements")
	pf.BoolVar(&g.noPrefetch, "no-prefetch", false, "fetch a page only when the buffer is empty")
	pf.StringVar(&g.scheduler, "scheduler", "", "step scheduler: trampoline or immediate")
	pf.IntVarP(&g.limit, "limit", "n", 0, "stop after this many elements (0 = all)")
	pf.IntVar(&g.batch, "batch", 0, "print elements in groups of this size")
	pf.StringVarP(&g.output, "output", "o", "text", "output format: text or json")
	pf.BoolVar(&g.telemetry, "telemetry", false, "export metrics and traces over OTLP HTTP")

	rootCmd.AddCommand(
		newScanCommand(g),
		newRowsCommand(g),
		newObjectsCommand(g),
		newVersionCommand(),
	)

	return rootCmd
}
