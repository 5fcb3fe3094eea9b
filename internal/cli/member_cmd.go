package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/pkg/api"
)

func newMemberCmd(f *clientFactory) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members"},
		Short:   "Manage household members",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List members",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := f.client().ListMembers(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				rows := make([][]string, 0, len(resp.Members))
				for _, m := range resp.Members {
					rows = append(rows, []string{m.ID, m.Name})
				}
				return printTable(w, []string{"ID", "NAME"}, rows)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Add a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := f.client().AddMember(cmd.Context(), &api.AddMemberRequest{Name: args[0]})
			if err != nil {
				return err
			}
			return render(cmd, resp, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Added member %s (%s)\n", resp.Member.Name, resp.Member.ID)
				return err
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a member and drop them from every service",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := f.client().RemoveMember(cmd.Context(), &api.RemoveMemberRequest{ID: args[0]}); err != nil {
				return err
			}
			return render(cmd, map[string]string{"removed": args[0]}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Removed member %s\n", args[0])
				return err
			})
		},
	})

	return cmd
}
