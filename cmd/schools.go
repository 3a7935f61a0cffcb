package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/spf13/cobra"
)

var listFlags struct {
	page   int
	limit  int
	search string
	kind   string
	school string
	status string
}

var schoolsCmd = &cobra.Command{
	Use:   "schools",
	Short: "Manage schools",
}

var schoolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List schools",
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()

		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}

		page, err := newAPIClient().ListSchools(context.Background(), token, listQuery())
		if err != nil {
			return fmt.Errorf("failed to list schools: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tCONTACT")
		for _, s := range page.Data {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Email, s.ContactNumber)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		printPageFooter(cmd, page.Page, page.TotalPages, page.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schoolsCmd)
	schoolsCmd.AddCommand(schoolsListCmd)
	addListFlags(schoolsListCmd)
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&listFlags.page, "page", 1, "page number")
	cmd.Flags().IntVar(&listFlags.limit, "limit", models.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&listFlags.search, "search", "", "search term")
}

func listQuery() models.ListQuery {
	q := models.ListQuery{
		Page:   listFlags.page,
		Limit:  listFlags.limit,
		Search: listFlags.search,
		Type:   models.UserType(listFlags.kind),
		School: listFlags.school,
		Status: models.RequestStatus(listFlags.status),
	}
	if q.Limit > models.MaxPageSize {
		q.Limit = models.MaxPageSize
	}
	return q
}

func printPageFooter(cmd *cobra.Command, page, totalPages, total int) {
	fmt.Fprintf(cmd.OutOrStdout(), "\npage %d of %d, %d total\n", page, totalPages, total)
}
