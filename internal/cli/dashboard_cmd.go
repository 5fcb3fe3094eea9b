package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
)

func newDashboardCmd(f *clientFactory) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show what each member owes for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := f.client().GetDashboard(cmd.Context(), &api.GetDashboardRequest{Month: month})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				return printDashboard(w, resp)
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: the month selected on the server)")
	return cmd
}

func printDashboard(w io.Writer, d *api.DashboardResponse) error {
	fmt.Fprintf(w, "%s\n", d.MonthLabel)
	fmt.Fprintf(w, "Total: %s  Members: %d  Services: %d  Paid: %d/%d\n\n",
		formatMoney(d.TotalCost), d.MemberCount, d.ServiceCount, d.PaidCount, d.MemberCount)

	rows := make([][]string, 0, len(d.Debts))
	for _, debt := range d.Debts {
		rows = append(rows, []string{debt.MemberID, debt.Name, debt.TotalDueText, yesNo(debt.Paid), debt.PaymentDate})
	}
	if err := printTable(w, []string{"ID", "MEMBER", "DUE", "PAID", "DATE"}, rows); err != nil {
		return err
	}

	if len(d.Services) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	rows = rows[:0]
	for _, s := range d.Services {
		rows = append(rows, []string{s.Name, formatMoney(s.Cost), strconv.Itoa(s.MemberCount), formatMoney(s.Share)})
	}
	return printTable(w, []string{"SERVICE", "COST", "MEMBERS", "SHARE"}, rows)
}

func newMonthCmd(f *clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "month",
		Short: "Move the month selected on the server",
	}

	shift := func(use, short string, delta int) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				resp, err := f.client().ShiftMonth(cmd.Context(), &api.ShiftMonthRequest{Delta: delta})
				if err != nil {
					return err
				}
				return render(cmd, resp, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "%s (%s)\n", resp.MonthLabel, resp.Month)
					return err
				})
			},
		}
	}

	cmd.AddCommand(shift("prev", "Select the previous month", -1))
	cmd.AddCommand(shift("next", "Select the next month", 1))
	cmd.AddCommand(shift("show", "Print the selected month", 0))
	return cmd
}

func newReloadCmd(f *clientFactory) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the server re-read everything from its store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.client().Reload(cmd.Context()); err != nil {
				return err
			}
			return render(cmd, map[string]bool{"reloaded": true}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, "Reloaded")
				return err
			})
		},
	}
}
