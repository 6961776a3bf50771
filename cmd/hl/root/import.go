package root

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON document",
		Long: `Replace all tasks, completions and achievements with the contents of a
JSON document written by "hl export" or a sync. Use "-" to read stdin.
Nothing is changed when the document is invalid.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("file is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			res := a.transfer.ImportJSON(cmd.Context(), data)
			a.applyTheme(res)
			return printResult(cmd.OutOrStdout(), res)
		},
	}

	return cmd
}
