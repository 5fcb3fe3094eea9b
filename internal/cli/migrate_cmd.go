package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmynk/streamsplit/internal/backend"
)

func newMigrateCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			if err := backend.Migrate(cfg); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return render(cmd, map[string]string{"backend": cfg.StoreBackend, "status": "up to date"}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Migrations applied (%s)\n", cfg.StoreBackend)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file read before the environment")
	return cmd
}
