package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitline/internal/backend"
	"habitline/internal/transfer"
	"habitline/internal/ui"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync with the configured WebDAV server",
		Long: `Push the local data to the WebDAV server, pull it back, or test the
connection. The server is configured under webdav in the config file or via
HABITLINE_WEBDAV_URL, HABITLINE_WEBDAV_USERNAME and HABITLINE_WEBDAV_PASSWORD.`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "push",
			Short: "Upload local data to WebDAV",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWebDAV(cmd, func(a *app, remote *backend.WebDAVStore) transfer.Result {
					return a.transfer.Push(cmd.Context(), remote)
				})
			},
		},
		&cobra.Command{
			Use:   "pull",
			Short: "Replace local data with the WebDAV copy",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWebDAV(cmd, func(a *app, remote *backend.WebDAVStore) transfer.Result {
					return pull(a, cmd, remote)
				})
			},
		},
		&cobra.Command{
			Use:   "test",
			Short: "Check the WebDAV URL and credentials",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withWebDAV(cmd, func(a *app, remote *backend.WebDAVStore) transfer.Result {
					return a.transfer.TestConnection(cmd.Context(), remote)
				})
			},
		},
	)

	return cmd
}

func withWebDAV(cmd *cobra.Command, fn func(a *app, remote *backend.WebDAVStore) transfer.Result) error {
	remote, err := backend.NewWebDAVStore(cfg.BackendOptions().WebDAV)
	if err != nil {
		return err
	}
	a, cleanup, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintln(cmd.ErrOrStderr(), ui.Muted.Render(ui.IconSync+" "+remote.Name()))
	return printResult(cmd.OutOrStdout(), fn(a, remote))
}

// pull restores from remote and keeps the theme that came with the document.
func pull(a *app, cmd *cobra.Command, remote backend.DocumentStore) transfer.Result {
	res := a.transfer.Pull(cmd.Context(), remote)
	a.pulled = true
	a.applyTheme(res)
	return res
}
