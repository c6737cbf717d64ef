package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/musemate/backend/internal/application/services"
)

// MuseumsCmd lists the catalog with optional text, city and type filters
var MuseumsCmd = &cobra.Command{
	Use:     "museums [query]",
	Aliases: []string{"m", "ls"},
	Short:   "List museums",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(configFromViper())
		if err != nil {
			return err
		}
		city, _ := cmd.Flags().GetString("city")
		kind, _ := cmd.Flags().GetString("type")
		q := services.BrowseQuery{City: city, Type: kind}
		if len(args) == 1 {
			q.Query = args[0]
		}
		return listMuseums(cmd.Context(), a, q, cmd.OutOrStdout())
	},
}

func init() {
	MuseumsCmd.Flags().String("city", "", "only museums in this city")
	MuseumsCmd.Flags().String("type", "", "only museums of this type")
}

func listMuseums(ctx context.Context, a *app, q services.BrowseQuery, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := a.museums.Browse(ctx, q)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCITY\tTYPE\tTIMINGS")
	for _, m := range result.Museums {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", m.ID, m.Name, m.City, m.Type, m.Timings)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d museum(s). Cities: %s\n", result.Total, strings.Join(result.Cities, ", "))
	return nil
}
