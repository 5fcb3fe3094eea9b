package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
)

func newReportCmd(f *clientFactory) *cobra.Command {
	var member, year string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "List recorded payments",
		Long:  "List recorded payments, most recent first. Filters left unset keep the server's current report filter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := f.client().GetReport(cmd.Context(), &api.GetReportRequest{MemberID: member, Year: year})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				fmt.Fprintf(w, "Member: %s  Year: %s\n\n", resp.MemberID, resp.Year)
				rows := make([][]string, 0, len(resp.Entries))
				for _, e := range resp.Entries {
					rows = append(rows, []string{e.Payment.Date, e.MemberName, e.Payment.Month})
				}
				return printTable(w, []string{"DATE", "MEMBER", "MONTH"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&member, "member", "", `Member ID or "all"`)
	cmd.Flags().StringVar(&year, "year", "", "Year, e.g. 2026")
	return cmd
}
