package root

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"habitline/internal/config"
	"habitline/internal/ui"
)

const Version = "0.1.0"

var (
	cfg     *config.Config
	cfgPath string
)

var rootCmd = &cobra.Command{
	Use:   "hl",
	Short: "habitline: daily habit tracker with achievements",
	Long: `habitline tracks recurring tasks, records one completion per task per day
and unlocks achievements from your completion history. Data lives in a local
SQLite file by default and can be synced to WebDAV or a directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("config")
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		loaded, err := config.Load(viper.GetViper(), path)
		if err != nil {
			return err
		}
		cfg, cfgPath = loaded, path
		ui.Apply(cfg.Theme)
		return nil
	},
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("config", "", "config file (default ~/.habitline/config.yaml)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend (sqlite|memory|webdav|dir)")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("db_path", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

var setupOnce sync.Once

func setup() {
	setupOnce.Do(registerCommands)
}

func registerCommands() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	addPersistentFlags()
	rootCmd.AddCommand(
		newAddCmd(),
		newListCmd(),
		newTodayCmd(),
		newDoCmd(),
		newUndoCmd(),
		newEditCmd(),
		newRmCmd(),
		newAchievementsCmd(),
		newHistoryCmd(),
		newStatusCmd(),
		newExportCmd(),
		newImportCmd(),
		newClearCmd(),
		newSyncCmd(),
		newDirCmd(),
		newBoardCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
}

func Execute() {
	setup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Bad.Render(ui.IconError+" "+err.Error()))
		os.Exit(1)
	}
}

func jsonOutput() bool { return viper.GetBool("json") }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
