package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: func(cmd *cobra.Command, args []string) error {

		commonSetUp()

		if listFlags.kind != "" && !models.UserType(listFlags.kind).Valid() {
			return fmt.Errorf("unknown user type %q", listFlags.kind)
		}

		token, err := loadToken(tokenFile)
		if err != nil {
			return err
		}

		page, err := newAPIClient().ListUsers(context.Background(), token, listQuery())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tTYPE\tSCHOOL")
		for _, u := range page.Data {
			school := ""
			if u.School != nil {
				school = u.School.Name
				if school == "" {
					school = u.School.ID
				}
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.Type, school)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		printPageFooter(cmd, page.Page, page.TotalPages, page.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd)
	addListFlags(usersListCmd)
	usersListCmd.Flags().StringVar(&listFlags.kind, "type", "", "user type (super_admin, admin, school_manager, student)")
	usersListCmd.Flags().StringVar(&listFlags.school, "school", "", "school id")
}
