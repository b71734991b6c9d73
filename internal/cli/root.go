// Package cli implements the storyline command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootState struct {
	v       *viper.Viper
	cfgFile string
}

// NewRootCmd builds the storyline command tree with its own configuration
// state.
func NewRootCmd() *cobra.Command {
	root := &rootState{v: viper.New()}

	cmd := &cobra.Command{
		Use:   "storyline",
		Short: "Keep stories, adventures and quests in a dense 1-based order",
		Long: `storyline stores stories, their adventures and the adventures' quests in
SQLite. Every sibling group keeps its active records numbered 1..N; inserts,
moves, exclusions and deletes shift the neighbours in the same transaction.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&root.cfgFile, "config", "", "config file (default is $HOME/.storyline.yaml)")
	flags.String("db", "", "database file")
	flags.String("log-level", "", "debug, info, warn or error")
	flags.String("log-format", "", "text or json")
	flags.String("descriptors", "", "YAML file adding order descriptors checked by verify")
	flags.Bool("events", false, "write change notifications as JSON lines to stderr")
	flags.Bool("metrics", false, "print metrics in Prometheus text format to stderr on exit")
	flags.StringP("output", "o", "", "text or json")
	for key, flag := range map[string]string{
		"database.path": "db",
		"log.level":     "log-level",
		"log.format":    "log-format",
		"descriptors":   "descriptors",
		"events":        "events",
		"metrics.dump":  "metrics",
		"output":        "output",
	} {
		_ = root.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newVersionCmd(),
		newMigrateCmd(root),
		newVerifyCmd(root),
		newEntityCmd(root, &storyEntity),
		newEntityCmd(root, &adventureEntity),
		newEntityCmd(root, &questEntity),
	)
	return cmd
}

func (r *rootState) withApp(cmd *cobra.Command, fn func(context.Context, *App) error) error {
	return r.withAppOptions(cmd, appOptions{}, fn)
}

func (r *rootState) withAppOptions(cmd *cobra.Command, opts appOptions, fn func(context.Context, *App) error) error {
	cfg, err := loadConfig(r.v, r.cfgFile)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}
