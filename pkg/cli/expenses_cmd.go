package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newExpensesCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"exp"},
		Short:   "Submit, review, and approve expenses",
	}

	cmd.AddCommand(newExpensesListCmd(client))
	cmd.AddCommand(newExpensesShowCmd(client))
	cmd.AddCommand(newExpensesSubmitCmd(client))
	cmd.AddCommand(newExpensesEditCmd(client))
	cmd.AddCommand(newExpensesDeleteCmd(client))
	cmd.AddCommand(newExpensesDecideCmd(client, "approve", "Approve a pending expense"))
	cmd.AddCommand(newExpensesDecideCmd(client, "reject", "Reject a pending expense"))
	return cmd
}

func newExpensesListCmd(client *Client) *cobra.Command {
	var (
		userID string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses visible to a user or role",
		Example: `  # An employee's own expenses
  expensehub expenses list --user u1

  # Everything, as a manager or admin
  expensehub expenses list --role manager`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{}
			if userID != "" {
				q.Set("userId", userID)
			}
			if role != "" {
				q.Set("role", role)
			}

			data, err := client.Do(http.MethodGet, "/expenses", q, nil)
			if err != nil {
				return err
			}

			var expenses []Expense
			if err := json.Unmarshal(data, &expenses); err != nil {
				return fmt.Errorf("decode expenses: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), expenses)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tUSER\tMERCHANT\tAMOUNT\tDATE\tSTATUS")
			for _, e := range expenses {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f %s\t%s\t%s\n",
					e.ID, e.UserID, e.Merchant, e.Amount, e.Currency, formatDate(e.Date), e.Status)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "List expenses owned by this user")
	cmd.Flags().StringVar(&role, "role", "", "List as this role (manager and admin see all)")
	return cmd
}

func newExpensesShowCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "show <expense-id>",
		Short: "Show a single expense with its approval history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := client.Do(http.MethodGet, "/expenses/"+args[0], nil, nil)
			if err != nil {
				return err
			}

			var e Expense
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode expense: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), e)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:          %s\n", e.ID)
			fmt.Fprintf(out, "User:        %s\n", e.UserID)
			fmt.Fprintf(out, "Merchant:    %s\n", e.Merchant)
			fmt.Fprintf(out, "Amount:      %.2f %s\n", e.Amount, e.Currency)
			fmt.Fprintf(out, "Date:        %s\n", formatDate(e.Date))
			fmt.Fprintf(out, "Category:    %s\n", e.Category)
			if e.Description != "" {
				fmt.Fprintf(out, "Description: %s\n", e.Description)
			}
			fmt.Fprintf(out, "Status:      %s\n", e.Status)
			for _, step := range e.History {
				fmt.Fprintf(out, "  %s by %s at %s", step.Status, step.ApproverID, formatDate(step.Timestamp))
				if step.Notes != "" {
					fmt.Fprintf(out, " (%s)", step.Notes)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newExpensesSubmitCmd(client *Client) *cobra.Command {
	var (
		userID      string
		merchant    string
		amount      float64
		currency    string
		date        string
		category    string
		description string
		receiptURL  string
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a new expense",
		Example: `  expensehub expenses submit --user u1 --merchant "Cloud Cafe" \
    --amount 12.50 --category meals --date 2026-08-30`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dateMillis, err := parseDate(date)
			if err != nil {
				return err
			}

			body := map[string]interface{}{
				"userId":      userID,
				"merchant":    merchant,
				"amount":      amount,
				"currency":    currency,
				"date":        dateMillis,
				"category":    category,
				"description": description,
				"receiptUrl":  receiptURL,
			}
			data, err := client.Do(http.MethodPost, "/expenses", nil, body)
			if err != nil {
				return err
			}

			var e Expense
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode expense: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %s (%s)\n", e.ID, e.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Submitting user ID")
	cmd.Flags().StringVar(&merchant, "merchant", "", "Merchant name")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Expense amount")
	cmd.Flags().StringVar(&currency, "currency", "", "Currency code (default USD)")
	cmd.Flags().StringVar(&date, "date", "", "Expense date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "", "Expense category")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&receiptURL, "receipt", "", "Receipt URL")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newExpensesEditCmd(client *Client) *cobra.Command {
	var (
		actorID     string
		merchant    string
		amount      float64
		date        string
		category    string
		description string
		receiptURL  string
	)

	cmd := &cobra.Command{
		Use:   "edit <expense-id>",
		Short: "Edit a pending or rejected expense",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dateMillis, err := parseDate(date)
			if err != nil {
				return err
			}

			body := map[string]interface{}{
				"userId":      actorID,
				"merchant":    merchant,
				"amount":      amount,
				"date":        dateMillis,
				"category":    category,
				"description": description,
				"receiptUrl":  receiptURL,
			}
			data, err := client.Do(http.MethodPut, "/expenses/"+args[0], nil, body)
			if err != nil {
				return err
			}

			var e Expense
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode expense: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", e.ID, e.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "user", "", "Acting user ID (owner or admin)")
	cmd.Flags().StringVar(&merchant, "merchant", "", "Merchant name")
	cmd.Flags().Float64Var(&amount, "amount", 0, "Expense amount")
	cmd.Flags().StringVar(&date, "date", "", "Expense date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "", "Expense category")
	cmd.Flags().StringVar(&description, "description", "", "Free-form description")
	cmd.Flags().StringVar(&receiptURL, "receipt", "", "Receipt URL")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("merchant")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newExpensesDeleteCmd(client *Client) *cobra.Command {
	var actorID string

	cmd := &cobra.Command{
		Use:   "delete <expense-id>",
		Short: "Delete an expense (owner or admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"userId": actorID}
			if _, err := client.Do(http.MethodDelete, "/expenses/"+args[0], nil, body); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"id": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&actorID, "user", "", "Acting user ID (owner or admin)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newExpensesDecideCmd(client *Client, action, short string) *cobra.Command {
	var (
		approverID string
		notes      string
	)

	cmd := &cobra.Command{
		Use:   action + " <expense-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"approverId": approverID,
				"notes":      notes,
			}
			data, err := client.Do(http.MethodPost, "/expenses/"+args[0]+"/"+action, nil, body)
			if err != nil {
				return err
			}

			var e Expense
			if err := json.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("decode expense: %w", err)
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), e)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", e.ID, e.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&approverID, "approver", "", "Approving user ID (manager or admin)")
	cmd.Flags().StringVar(&notes, "notes", "", "Decision notes")
	_ = cmd.MarkFlagRequired("approver")
	return cmd
}

func parseDate(s string) (int64, error) {
	if s == "" {
		return time.Now().UnixMilli(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, fmt.Errorf("invalid date %q: use YYYY-MM-DD", s)
	}
	return t.UnixMilli(), nil
}

func formatDate(millis int64) string {
	if millis == 0 {
		return "-"
	}
	return time.UnixMilli(millis).UTC().Format("2006-01-02")
}
