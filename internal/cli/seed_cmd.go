package cli

import (
	"errors"
	"fmt"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	columnstore "github.com/dalemusser/taskboard/internal/app/store/columns"
	userstore "github.com/dalemusser/taskboard/internal/app/store/users"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/indexes"
	"github.com/dalemusser/taskboard/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(app *App) *cobra.Command {
	var email, password, name, workspace, board string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a user with a workspace and a board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := indexes.EnsureAll(ctx, app.DB); err != nil {
				return fmt.Errorf("ensure indexes: %w", err)
			}

			users := userstore.New(app.DB)
			u, err := users.Create(ctx, models.User{FullName: name, Email: email}, password)
			if errors.Is(err, userstore.ErrDuplicateEmail) {
				existing, gerr := users.GetByEmail(ctx, email)
				if gerr != nil {
					return gerr
				}
				u = *existing
				fmt.Fprintf(cmd.ErrOrStderr(), "user %s already exists; reusing it\n", u.Email)
			} else if err != nil {
				return fmt.Errorf("create user: %w", err)
			}

			wss := workspacestore.New(app.DB)
			ws, err := wss.Create(ctx, workspace, u.ID)
			if err != nil {
				return fmt.Errorf("create workspace: %w", err)
			}
			b, err := boardstore.New(app.DB).Create(ctx, ws.ID, u.ID, board)
			if err != nil {
				return fmt.Errorf("create board: %w", err)
			}
			if _, err := columnstore.New(app.Docs).CreateDefaults(ctx, b.ID); err != nil {
				return fmt.Errorf("create columns: %w", err)
			}
			if err := wss.AddBoard(ctx, ws.ID, b.ID); err != nil {
				return fmt.Errorf("link board: %w", err)
			}

			app.Log.Info("seeded", zap.String("user", u.ID.Hex()), zap.String("board", b.ID.Hex()))
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:      %s (%s)\n", u.ID.Hex(), u.Email)
			fmt.Fprintf(out, "workspace: %s (%s)\n", ws.ID.Hex(), ws.Name)
			fmt.Fprintf(out, "board:     %s (%s)\n", b.ID.Hex(), b.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Sign-in email (required)")
	cmd.Flags().StringVar(&password, "password", "", "Sign-in password, at least 8 characters (required)")
	cmd.Flags().StringVar(&name, "name", "Board Owner", "Display name")
	cmd.Flags().StringVar(&workspace, "workspace", "My Workspace", "Workspace name")
	cmd.Flags().StringVar(&board, "board", "My Board", "Board name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
