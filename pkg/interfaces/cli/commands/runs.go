package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coldplan/pkg/infrastructure/store"
)

var (
	runsStorePath string
	runsLimit     int
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List archived plan runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(runsStorePath)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no archived runs")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tHORIZON\tSOLVER\tFEASIBLE\tCOST\tSOLVE(s)")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%s..%s\t%s\t%t\t%s\t%.1f\n",
				r.ID[:8], r.CreatedAt.Format("2006-01-02 15:04"),
				r.HorizonStart, r.HorizonEnd, r.Solver, r.AllFeasible,
				r.TotalCost, r.TotalSolveSeconds)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsStorePath, "store", "coldplan.db", "SQLite plan archive path")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "maximum runs to list")
}
