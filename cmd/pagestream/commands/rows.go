package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/kbukum/pagestream/component"
	"github.com/kbukum/pagestream/cursor"
	"github.com/kbukum/pagestream/database"
	"github.com/kbukum/pagestream/errors"
	"github.com/kbukum/pagestream/logger"
)

type row = map[string]any

func newRowsCommand(g *globalFlags) *cobra.Command {
	var (
		dsn      string
		table    string
		key      string
		where    string
		pageSize int
	)

	cmd := &cobra.Command{
		Use:     "rows",
		Short:   "Stream the rows of a SQL table in key order (keyset pagination)",
		Example: `  pagestream rows --dsn app.db --table events --key id -n 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if table == "" {
				return errors.InvalidConfig("table", "is required")
			}
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			cfg.Database.Enabled = true
			if dsn != "" {
				cfg.Database.DSN = dsn
			}

			var comp *database.Component
			ks := database.Keyset[row]{
				Table:    table,
				Column:   key,
				PageSize: pageSize,
				KeyOf:    database.MapKey(key),
			}
			if where != "" {
				ks.Scope = func(tx *gorm.DB) *gorm.DB { return tx.Where(where) }
			}

			return runStream(cmd, g, cfg, stream[row]{
				name:      "rows " + table,
				backend:   "database",
				component: func(log *logger.Logger) component.Component {
					comp = database.NewComponent(cfg.Database, log)
					return comp
				},
				details: fmt.Sprintf("key=%s page=%d", key, pageSize),
				fetcher: func() (cursor.PageFetcher[row], error) {
					return database.KeysetFetcher(comp.DB(), ks)
				},
				text: formatRow,
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&dsn, "dsn", "", "database DSN (overrides database.dsn)")
	f.StringVar(&table, "table", "", "table to read")
	f.StringVar(&key, "key", "id", "unique ordered key column")
	f.StringVar(&where, "where", "", "SQL condition applied to every page")
	f.IntVar(&pageSize, "page-size", 0, "rows per page (default database.page_size)")
	return cmd
}

// formatRow prints columns as sorted key=value pairs.
func formatRow(r row) string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s=%v", c, r[c])
	}
	return strings.Join(parts, " ")
}
