package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"github.com/the-dev-tools/storyline/internal/migrations"
	"github.com/the-dev-tools/storyline/pkg/ordering"
	"golang.org/x/sync/errgroup"
)

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "v0.0.0"

// ErrViolations is returned by verify when any group is not dense.
var ErrViolations = errors.New("ordering violations found")

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of storyline",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "storyline %s\n", Version)
		},
	}
}

func newMigrateCmd(root *rootState) *cobra.Command {
	var (
		pending bool
		backup  bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withAppOptions(cmd, appOptions{skipMigrate: true}, func(ctx context.Context, a *App) error {
				out := cmd.OutOrStdout()
				if pending {
					migs, err := migrations.Pending(ctx, a.DB, a.Logger)
					if err != nil {
						return err
					}
					for _, m := range migs {
						fmt.Fprintf(out, "%s\t%s\n", m.ID, m.Description)
					}
					return nil
				}

				if backup && a.Config.Backup.Dir == "" {
					return errors.New("--backup needs backup.dir to be configured")
				}
				if err := migrations.Run(ctx, a.DB, migrations.Config{
					BackupDir:     a.Config.Backup.Dir,
					RetainBackups: a.Config.Backup.Retain,
					Backup:        backup,
				}, a.Logger); err != nil {
					return err
				}
				_, err := fmt.Fprintln(out, "schema up to date")
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&pending, "pending", false, "list pending migrations without applying them")
	cmd.Flags().BoolVar(&backup, "backup", false, "snapshot the database before each migration")
	return cmd
}

func newVerifyCmd(root *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check that every sibling group is densely ordered",
		Long: `Scan every group of every ordered entity and report groups whose active
records do not hold exactly the positions 1..N. Nothing is repaired.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				violations, err := audit(ctx, a)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, v := range violations {
					fmt.Fprintln(out, v.String())
				}
				if len(violations) > 0 {
					return fmt.Errorf("%w: %d group(s)", ErrViolations, len(violations))
				}
				_, err = fmt.Fprintf(out, "%d entities verified\n", len(a.Descriptors))
				return err
			})
		},
	}
}

// audit runs the engine audit of every descriptor concurrently.
func audit(ctx context.Context, a *App) ([]ordering.Violation, error) {
	var (
		mu  sync.Mutex
		all []ordering.Violation
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, d := range a.Descriptors {
		g.Go(func() error {
			violations, err := ordering.NewSQL(d, a.DB, a.Logger).Audit(gctx)
			if err != nil {
				return fmt.Errorf("audit %s: %w", d.Entity, err)
			}
			mu.Lock()
			all = append(all, violations...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}
