package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
)

func newServiceCmd(f *clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "service",
		Aliases: []string{"services"},
		Short:   "Manage subscriptions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List services with their per-member share",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := f.client().ListServices(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				rows := make([][]string, 0, len(resp.Services))
				for _, s := range resp.Services {
					rows = append(rows, []string{s.ID, s.Name, formatMoney(s.Cost), formatMoney(s.Share), strings.Join(s.MemberIDs, ",")})
				}
				return printTable(w, []string{"ID", "NAME", "COST", "SHARE", "MEMBERS"}, rows)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <cost>",
		Short: "Add a service with its monthly cost",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.client().AddService(cmd.Context(), &api.AddServiceRequest{Name: args[0], Cost: args[1]})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added service %s (%s) at %s\n",
					resp.Service.Name, resp.Service.ID, formatMoney(resp.Service.Cost))
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.client().RemoveService(cmd.Context(), &api.RemoveServiceRequest{ID: args[0]}); err != nil {
				return err
			}
			return render(cmd, map[string]string{"removed": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed service %s\n", args[0])
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "toggle <service-id> <member-id>",
		Short: "Add a member to a service, or remove them if already in it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.client().ToggleServiceMember(cmd.Context(), &api.ToggleServiceMemberRequest{
				ServiceID: args[0],
				MemberID:  args[1],
			})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s now shared by %d member(s), %s each\n",
					resp.Service.Name, len(resp.Service.MemberIDs), formatMoney(resp.Service.Share))
				return err
			})
		},
	})

	return cmd
}
