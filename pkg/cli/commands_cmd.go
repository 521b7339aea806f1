package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CommandEntry represents a single CLI command for introspection output.
type CommandEntry struct {
	Path    string      `json:"path"`
	Short   string      `json:"short"`
	Example string      `json:"example,omitempty"`
	Args    string      `json:"args,omitempty"`
	Flags   []FlagEntry `json:"flags,omitempty"`
}

// FlagEntry represents a single CLI flag for introspection output.
type FlagEntry struct {
	Name     string `json:"name"`
	Short    string `json:"shorthand,omitempty"`
	Type     string `json:"type"`
	Default  string `json:"default,omitempty"`
	Usage    string `json:"usage,omitempty"`
	Required bool   `json:"required,omitempty"`
}

func newCommandsCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List all available CLI commands with their flags",
		Long: `Introspects the command tree and lists all commands with their paths,
descriptions, and flags. Works offline (no API calls needed).`,
		Example: `  expensehub commands
  expensehub commands --filter approve
  expensehub commands --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := walkCommands(cmd.Root(), "")

			if filter != "" {
				lowerFilter := strings.ToLower(filter)
				var filtered []CommandEntry
				for _, e := range entries {
					searchText := strings.ToLower(e.Path + " " + e.Short)
					if strings.Contains(searchText, lowerFilter) {
						filtered = append(filtered, e)
					}
				}
				entries = filtered
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), entries)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tDESCRIPTION")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\n", e.Path, e.Short)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Substring search across command names and descriptions")
	return cmd
}

// walkCommands recursively walks the cobra command tree and collects leaf commands.
func walkCommands(cmd *cobra.Command, parentPath string) []CommandEntry {
	var entries []CommandEntry

	for _, child := range cmd.Commands() {
		if child.Hidden || child.Name() == "help" {
			continue
		}

		childPath := child.Name()
		if parentPath != "" {
			childPath = parentPath + " " + child.Name()
		}

		if child.HasSubCommands() {
			entries = append(entries, walkCommands(child, childPath)...)
			continue
		}

		args := ""
		useParts := strings.Fields(child.Use)
		if len(useParts) > 1 {
			args = strings.Join(useParts[1:], " ")
		}

		entries = append(entries, CommandEntry{
			Path:    childPath,
			Short:   child.Short,
			Example: child.Example,
			Args:    args,
			Flags:   collectFlags(child),
		})
	}

	return entries
}

// collectFlags gathers flag metadata from a command.
func collectFlags(cmd *cobra.Command) []FlagEntry {
	var flags []FlagEntry
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		entry := FlagEntry{
			Name:    f.Name,
			Short:   f.Shorthand,
			Type:    f.Value.Type(),
			Default: f.DefValue,
			Usage:   f.Usage,
		}
		if ann, ok := f.Annotations[cobra.BashCompOneRequiredFlag]; ok && len(ann) > 0 && ann[0] == "true" {
			entry.Required = true
		}
		flags = append(flags, entry)
	})
	return flags
}
