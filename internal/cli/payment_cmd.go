package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
)

func newPayCmd(f *clientFactory) *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "pay <member-id>",
		Short: "Toggle whether a member has paid for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.client().TogglePayment(cmd.Context(), &api.TogglePaymentRequest{
				MemberID: args[0],
				Month:    month,
			})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				if resp.Paid {
					_, err := fmt.Fprintf(w, "Marked %s as paid for %s on %s\n", args[0], resp.Payment.Month, resp.Payment.Date)
					return err
				}
				_, err := fmt.Fprintf(w, "Marked %s as unpaid for %s\n", args[0], resp.Payment.Month)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: the month selected on the server)")
	return cmd
}
