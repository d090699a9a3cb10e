package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yungbote/pillars-backend/internal/app"
	"github.com/yungbote/pillars-backend/internal/platform/envutil"
)

func newPersonasCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "personas",
		Short: "Inspect persona contracts",
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", envutil.String("PERSONAS_DIR", ""), "contract directory (default: built-in set)")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List personas and their pillars",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(dir)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tPILLAR\tTOPICS\tREDIRECTS")
			for _, c := range reg.All() {
				tags := make([]string, 0, len(c.Topics))
				for _, t := range c.Topics {
					tags = append(tags, t.Tag)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n", c.ID, c.Name, c.Kind, c.Pillar, strings.Join(tags, ","), len(c.Redirects))
			}
			return w.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate persona contracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := app.LoadRegistry(dir)
			if err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d personas OK\n", len(reg.All()))
			return nil
		},
	})
	return cmd
}
