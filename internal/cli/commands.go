package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/the-dev-tools/storyline/pkg/idwrap"
)

// newEntityCmd builds create, update, move, include, exclude, delete and
// list for e.
func newEntityCmd(root *rootState, e *entity) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.name,
		Short: fmt.Sprintf("Manage %s records and their order", e.name),
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}
	cmd.AddCommand(
		newCreateCmd(root, e),
		newUpdateCmd(root, e),
		newMoveCmd(root, e),
		newIncludeCmd(root, e),
		newExcludeCmd(root, e),
		newDeleteCmd(root, e),
		newListCmd(root, e),
	)
	return cmd
}

func (e *entity) parentEntity() *entity {
	return entities[e.parent]
}

func newCreateCmd(root *rootState, e *entity) *cobra.Command {
	var (
		description string
		image       string
		parentRef   string
		index       int64
		excluded    bool
	)
	cmd := &cobra.Command{
		Use:   "create TITLE",
		Short: fmt.Sprintf("Create a %s, appended unless --index is given", e.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				in := createInput{Title: args[0], Description: description, ImageName: image}
				if cmd.Flags().Changed("index") {
					in.Index = &index
				}
				if excluded {
					active := false
					in.Active = &active
				}
				if e.parent != "" {
					id, err := e.parentEntity().resolve(ctx, a, parentRef)
					if err != nil {
						return err
					}
					in.Parent = id
				}

				var r row
				err := a.Retry(ctx, func(ctx context.Context) error {
					var err error
					r, err = e.create(ctx, a, in)
					return err
				})
				if err != nil {
					return err
				}
				return printRow(cmd.OutOrStdout(), a.Config.Output, e, r)
			})
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "description text")
	cmd.Flags().Int64Var(&index, "index", 0, "1-based position to insert at")
	cmd.Flags().BoolVar(&excluded, "excluded", false, "create the record without a position")
	if e.hasImage {
		cmd.Flags().StringVar(&image, "image", "", "image file name")
	}
	if e.parent != "" {
		cmd.Flags().StringVar(&parentRef, e.parent, "", fmt.Sprintf("%s id or title (required)", e.parent))
		_ = cmd.MarkFlagRequired(e.parent)
	}
	return cmd
}

func newUpdateCmd(root *rootState, e *entity) *cobra.Command {
	var (
		title       string
		description string
		image       string
		parentRef   string
		index       int64
	)
	cmd := &cobra.Command{
		Use:   "update REF",
		Short: fmt.Sprintf("Update a %s by id or title", e.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				var in updateInput
				flags := cmd.Flags()
				if flags.Changed("title") {
					in.Title = &title
				}
				if flags.Changed("description") {
					in.Description = &description
				}
				if flags.Changed("image") {
					in.ImageName = &image
				}
				if flags.Changed("index") {
					in.Index = &index
				}
				if e.parent != "" && flags.Changed(e.parent) {
					id, err := e.parentEntity().resolve(ctx, a, parentRef)
					if err != nil {
						return err
					}
					in.Parent = &id
				}
				return runUpdate(ctx, cmd, a, e, args[0], in)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Int64Var(&index, "index", 0, "new 1-based position")
	if e.hasImage {
		cmd.Flags().StringVar(&image, "image", "", "new image file name")
	}
	if e.parent != "" {
		cmd.Flags().StringVar(&parentRef, e.parent, "", fmt.Sprintf("move to another %s", e.parent))
	}
	return cmd
}

func newMoveCmd(root *rootState, e *entity) *cobra.Command {
	return &cobra.Command{
		Use:   "move REF INDEX",
		Short: fmt.Sprintf("Move a %s to another position among its siblings", e.name),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("index %q: %w", args[1], err)
			}
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				return runUpdate(ctx, cmd, a, e, args[0], updateInput{Index: &index})
			})
		},
	}
}

func newIncludeCmd(root *rootState, e *entity) *cobra.Command {
	var index int64
	cmd := &cobra.Command{
		Use:   "include REF",
		Short: fmt.Sprintf("Give an excluded %s a position again, appended unless --index is given", e.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				active := true
				in := updateInput{Active: &active}
				if cmd.Flags().Changed("index") {
					in.Index = &index
				}
				return runUpdate(ctx, cmd, a, e, args[0], in)
			})
		},
	}
	cmd.Flags().Int64Var(&index, "index", 0, "1-based position to include at")
	return cmd
}

func newExcludeCmd(root *rootState, e *entity) *cobra.Command {
	return &cobra.Command{
		Use:   "exclude REF",
		Short: fmt.Sprintf("Remove a %s from the order without deleting it", e.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				active := false
				return runUpdate(ctx, cmd, a, e, args[0], updateInput{Active: &active})
			})
		},
	}
}

func newDeleteCmd(root *rootState, e *entity) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: fmt.Sprintf("Delete a %s and close the gap it leaves", e.name),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				id, err := e.resolve(ctx, a, args[0])
				if err != nil {
					return err
				}
				if err := a.Retry(ctx, func(ctx context.Context) error {
					return e.delete(ctx, a, id)
				}); err != nil {
					return err
				}
				if a.Config.Output == "json" {
					return nil
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %s deleted\n", e.name, id)
				return err
			})
		},
	}
}

func newListCmd(root *rootState, e *entity) *cobra.Command {
	var parentRef string
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s records in order, excluded ones last", e.name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return root.withApp(cmd, func(ctx context.Context, a *App) error {
				var parent *idwrap.IDWrap
				if parentRef != "" {
					id, err := e.parentEntity().resolve(ctx, a, parentRef)
					if err != nil {
						return err
					}
					parent = &id
				}
				rows, err := e.list(ctx, a, parent)
				if err != nil {
					return err
				}
				return printRows(cmd.OutOrStdout(), a.Config.Output, e, rows)
			})
		},
	}
	if e.parent != "" {
		cmd.Flags().StringVar(&parentRef, e.parent, "", fmt.Sprintf("only list records of this %s", e.parent))
	}
	return cmd
}

func runUpdate(ctx context.Context, cmd *cobra.Command, a *App, e *entity, ref string, in updateInput) error {
	id, err := e.resolve(ctx, a, ref)
	if err != nil {
		return err
	}
	var r row
	err = a.Retry(ctx, func(ctx context.Context) error {
		var err error
		r, err = e.update(ctx, a, id, in)
		return err
	})
	if err != nil {
		return err
	}
	return printRow(cmd.OutOrStdout(), a.Config.Output, e, r)
}
