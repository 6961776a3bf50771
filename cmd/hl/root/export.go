package root

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"habitline/internal/ui"
)

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all data as a JSON document",
		Example: `  hl export > backup.json
  hl export --out backup.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			data, res := a.transfer.ExportJSON(cmd.Context())
			if !res.Success {
				return errors.New(res.Message)
			}
			if out == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), ui.Good.Render(fmt.Sprintf("%s Exported to %s", ui.IconDone, out)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")

	return cmd
}
