package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/tabledoc/internal/cli/config"
	"github.com/leapstack-labs/tabledoc/internal/manifest"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Parse and merge the dataset configuration without querying",
		Long: `Load all JSON dataset configuration fragments, apply the merge rules,
and print the resulting table, group, and join-group entries. Useful for
catching malformed JSON (usually a trailing comma) before a full run.`,
		Example: `  tabledoc validate --dataset-config public.json --dataset-config uspto.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd)
		},
	}
}

func runValidate(cmd *cobra.Command) error {
	cfg := config.GetCurrentConfig()
	out := cmd.OutOrStdout()

	if len(cfg.Configs) == 0 {
		return fmt.Errorf("at least one --dataset-config file is required")
	}

	m, err := manifest.Load(cfg.Configs...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Merged %d configuration files\n\n", len(cfg.Configs))

	fmt.Fprintf(out, "Datasets (%d):\n", len(m.Tables))
	for _, name := range m.DatasetNames {
		fmt.Fprintf(out, "  %-25s %s\n", name, strings.Join(m.Tables[name], ", "))
	}

	grouped := make([]string, 0, len(m.Groups))
	for table := range m.Groups {
		grouped = append(grouped, table)
	}
	sort.Strings(grouped)

	fmt.Fprintf(out, "\nGroup-by columns (%d):\n", len(m.Groups))
	for _, table := range grouped {
		fmt.Fprintf(out, "  %-40s %s\n", table, m.Groups[table])
	}

	fmt.Fprintf(out, "\nJoin groups (%d):\n", len(m.Joins))
	for _, name := range m.JoinNames {
		fmt.Fprintf(out, "  %-25s %s\n", name, strings.Join(m.Joins[name], ", "))
	}

	return nil
}
