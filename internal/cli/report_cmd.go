package cli

import (
	"fmt"
	"time"

	boardstore "github.com/dalemusser/taskboard/internal/app/store/boards"
	workspacestore "github.com/dalemusser/taskboard/internal/app/store/workspaces"
	"github.com/dalemusser/taskboard/internal/app/system/boardreport"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newReportCmd(app *App) *cobra.Command {
	var workspaceID, boardID, format, start, end string
	var includeArchived bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a workspace or board report to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := boardreport.NormalizeFormat(format)
			if err != nil {
				return err
			}
			from, to, err := boardreport.ParseDates(start, end)
			if err != nil {
				return err
			}
			wsID, err := primitive.ObjectIDFromHex(workspaceID)
			if err != nil {
				return fmt.Errorf("--workspace: %w", err)
			}
			var bID primitive.ObjectID
			if boardID != "" {
				if bID, err = primitive.ObjectIDFromHex(boardID); err != nil {
					return fmt.Errorf("--board: %w", err)
				}
			}

			ctx := cmd.Context()
			ws, err := workspacestore.New(app.DB).GetByID(ctx, wsID)
			if err != nil {
				return fmt.Errorf("load workspace: %w", err)
			}
			rep, err := boardreport.NewBuilder(boardstore.New(app.DB), app.Docs).Build(ctx, boardreport.Query{
				Workspace:       ws,
				BoardID:         bID,
				Start:           from,
				End:             to,
				IncludeArchived: includeArchived,
			})
			if err != nil {
				return err
			}
			if err := boardreport.Write(cmd.OutOrStdout(), f, rep); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d tasks on %d boards (%s)\n",
				len(rep.Tasks), len(rep.Boards), boardreport.Filename(f, time.Now()))
			return nil
		},
	}

	cmd.Flags().StringVar(&workspaceID, "workspace", "", "Workspace id (required)")
	cmd.Flags().StringVar(&boardID, "board", "", "Limit to one board id")
	cmd.Flags().StringVar(&format, "format", boardreport.FormatCSV, "Output format: csv or json")
	cmd.Flags().StringVar(&start, "start", "", "Only tasks created on or after this date ("+boardreport.DateLayout+")")
	cmd.Flags().StringVar(&end, "end", "", "Only tasks created on or before this date ("+boardreport.DateLayout+")")
	cmd.Flags().BoolVar(&includeArchived, "include-archived", false, "Include archived columns and tasks")
	_ = cmd.MarkFlagRequired("workspace")

	return cmd
}
