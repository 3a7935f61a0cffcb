package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/lemo-app/lemo-dashboard/api/services"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/spf13/cobra"
)

var rejectReason string

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "Review block requests",
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List block requests grouped by status",
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()

		if listFlags.status != "" && !models.RequestStatus(listFlags.status).Valid() {
			return fmt.Errorf("unknown status %q", listFlags.status)
		}

		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}

		board, err := fetchBoard(context.Background(), newAPIClient(), token, listQuery())
		if err != nil {
			return err
		}
		return printBoard(cmd.OutOrStdout(), board)
	},
}

var requestsApproveCmd = &cobra.Command{
	Use:   "approve <request-id>",
	Short: "Approve a pending block request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()
		return runDecision(cmd, args[0], models.Decision{Status: models.StatusApproved})
	},
}

var requestsRejectCmd = &cobra.Command{
	Use:   "reject <request-id>",
	Short: "Reject a pending block request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {

		rejection := models.Rejection{Reason: rejectReason}
		if err := validate.Struct(&rejection); err != nil {
			return formError(err)
		}

		commonSetUp()
		return runDecision(cmd, args[0], models.Decision{Status: models.StatusRejected, RejectionReason: rejection.Reason})
	},
}

func init() {
	rootCmd.AddCommand(requestsCmd)
	requestsCmd.AddCommand(requestsListCmd, requestsApproveCmd, requestsRejectCmd)

	addListFlags(requestsListCmd)
	requestsListCmd.Flags().StringVar(&listFlags.status, "status", "", "only show requests with this status")
	requestsListCmd.Flags().StringVar(&listFlags.school, "school", "", "school id")
	requestsRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "why the request is rejected")
}

func fetchBoard(ctx context.Context, client services.LemoAPI, token string, q models.ListQuery) (*models.Board, error) {
	page, err := client.ListBlockRequests(ctx, token, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list block requests: %w", err)
	}
	return models.NewBoard(page.Data), nil
}

func runDecision(cmd *cobra.Command, id string, decision models.Decision) error {
	token, err := loadToken(tokenFile)
	if err != nil {
		return err
	}

	board, err := decideRequest(context.Background(), newAPIClient(), token, id, decision)
	if err != nil {
		return err
	}

	updated, _ := board.Find(id)
	fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n\n", updated.SiteURL, updated.Status)
	return printBoard(cmd.OutOrStdout(), board)
}

// decideRequest applies decision to a pending request and returns the
// board of pending requests with the change applied.
func decideRequest(ctx context.Context, client services.LemoAPI, token, id string, decision models.Decision) (*models.Board, error) {
	board, err := fetchBoard(ctx, client, token, models.ListQuery{Status: models.StatusPending, Limit: models.MaxPageSize})
	if err != nil {
		return nil, err
	}

	current, ok := board.Find(id)
	if !ok {
		req, err := client.GetBlockRequest(ctx, token, id)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve block request: %w", err)
		}
		current = *req
	}

	state, err := current.State()
	if err != nil {
		return nil, err
	}
	if _, pending := state.(models.Pending); !pending {
		return nil, fmt.Errorf("block request %s is already %s", id, state.Status())
	}

	updated, err := client.DecideBlockRequest(ctx, token, id, decision)
	if err != nil {
		return nil, fmt.Errorf("failed to update block request: %w", err)
	}

	board.Apply(*updated)
	return board, nil
}

func printBoard(out io.Writer, board *models.Board) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tID\tSITE\tSCHOOL\tUPDATED\tNOTE")

	for _, group := range [][]models.BlockRequest{board.Pending, board.Approved, board.Rejected} {
		for _, req := range group {
			school := ""
			if req.School != nil {
				school = req.School.Name
				if school == "" {
					school = req.School.ID
				}
			}

			note := req.Reason
			if state, err := req.State(); err == nil {
				if rejected, ok := state.(models.Rejected); ok {
					note = rejected.Reason
				}
			}

			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", req.Status, req.ID, req.SiteURL, school,
				req.UpdatedAt.Local().Format(time.DateTime), note)
		}
	}
	return tw.Flush()
}
