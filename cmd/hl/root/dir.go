package root

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/backend"
	"habitline/internal/transfer"
	"habitline/internal/ui"
)

func newDirCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "dir",
		Short: "Back up to or restore from a directory",
		Long: `Write the backup document into a directory, or restore from it. The
directory defaults to dir.path from the config file.`,
	}
	cmd.PersistentFlags().StringVar(&path, "path", "", "Backup directory")

	run := func(fn func(a *app, cmd *cobra.Command, remote *backend.DirStore) transfer.Result) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			p := path
			if p == "" {
				p = cfg.Dir.Path
			}
			if p == "" {
				return errors.New("no directory: pass --path or set dir.path")
			}
			remote, err := backend.OpenDirStore(p)
			if err != nil {
				return err
			}
			defer remote.Close()

			a, cleanup, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Fprintln(cmd.ErrOrStderr(), ui.Muted.Render(ui.IconScroll+" "+remote.Name()))
			return printResult(cmd.OutOrStdout(), fn(a, cmd, remote))
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Write a backup into the directory",
			RunE: run(func(a *app, cmd *cobra.Command, remote *backend.DirStore) transfer.Result {
				return a.transfer.Push(cmd.Context(), remote)
			}),
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Replace local data with the backup in the directory",
			RunE: run(func(a *app, cmd *cobra.Command, remote *backend.DirStore) transfer.Result {
				return pull(a, cmd, remote)
			}),
		},
	)

	return cmd
}
