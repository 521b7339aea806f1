package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newUsersCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users and roles",
	}

	cmd.AddCommand(newUsersListCmd(client))
	cmd.AddCommand(newUsersShowCmd(client))
	cmd.AddCommand(newUsersSetRoleCmd(client))
	return cmd
}

func newUsersListCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := client.Do(http.MethodGet, "/users", nil, nil)
			if err != nil {
				return err
			}

			var users []User
			if err := json.Unmarshal(data, &users); err != nil {
				return fmt.Errorf("decode users: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), users)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
			}
			return tw.Flush()
		},
	}
}

func newUsersShowCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show a single user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.Do(http.MethodGet, "/users/"+args[0], nil, nil)
			if err != nil {
				return err
			}

			var user User
			if err := json.Unmarshal(data, &user); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), user)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:    %s\n", user.ID)
			fmt.Fprintf(out, "Name:  %s\n", user.Name)
			fmt.Fprintf(out, "Email: %s\n", user.Email)
			fmt.Fprintf(out, "Role:  %s\n", user.Role)
			return nil
		},
	}
}

func newUsersSetRoleCmd(client *Client) *cobra.Command {
	var adminID string

	cmd := &cobra.Command{
		Use:   "set-role <user-id> <role>",
		Short: "Change a user's role (admin only)",
		Example: `  expensehub users set-role u2 manager --admin a1
  expensehub users set-role m1 employee --admin a1 -o json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"role":    args[1],
				"adminId": adminID,
			}
			data, err := client.Do(http.MethodPut, "/users/"+args[0]+"/role", nil, body)
			if err != nil {
				return err
			}

			var user User
			if err := json.Unmarshal(data, &user); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.ID, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&adminID, "admin", "", "ID of the admin performing the change")
	_ = cmd.MarkFlagRequired("admin")
	return cmd
}
