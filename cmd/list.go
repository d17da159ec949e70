package cmd

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"sigpatch/internal/binfile"
	"sigpatch/internal/patchset"
)

var (
	listConfig string
	listInput  string
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	missStyle   = cellStyle.Foreground(lipgloss.Color("#FF5F87"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the patches in a patch set, in the order they run",
	Long: `list prints every patch of a patch set. With --input it also counts
how many times each search pattern occurs in that binary, without modifying it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if listConfig == "" {
			return errors.New("missing --config")
		}
		out, err := renderPatchSet(listConfig, listInput)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listConfig, "config", "c", "", "patch set file (.toml, .yaml)")
	listCmd.Flags().StringVarP(&listInput, "input", "i", "", "binary to scan for matches")
	rootCmd.AddCommand(listCmd)
}

// renderPatchSet builds the table shown by list. When input is set, a
// Matches column holds the search hits against the untouched file.
func renderPatchSet(config, input string) (string, error) {
	ps, err := patchset.Load(config)
	if err != nil {
		return "", err
	}

	headers := []string{"Order", "Name", "Len", "Pattern", "Patch"}
	var data []byte
	if input != "" {
		f, err := binfile.Open(input)
		if err != nil {
			return "", err
		}
		data = f.Data
		headers = append(headers, "Matches")
	}

	misses := map[int]bool{}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...)
	for i, op := range ps.Operations {
		row := []string{
			strconv.Itoa(op.Order),
			op.Name,
			strconv.Itoa(op.Search.Len()),
			op.Search.String(),
			op.Replace.String(),
		}
		if input != "" {
			n := len(op.Search.FindAll(data))
			misses[i] = n == 0
			row = append(row, strconv.Itoa(n))
		}
		t.Row(row...)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == table.HeaderRow:
			return headerStyle
		case misses[row]:
			return missStyle
		default:
			return cellStyle
		}
	})

	return titleStyle.Render(ps.Name) + "\n" + t.Render(), nil
}
