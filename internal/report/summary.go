package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// WriteSummary prints one table row per leaf node of the run.
func WriteSummary(w io.Writer, result *RunResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Node", "Kind", "Status", "Time", "Detail"})
	table.SetAutoWrapText(false)
	for _, m := range Leaves(result) {
		n := m.Node
		detail := ""
		if n.Error != nil {
			detail = n.Error.Title
			if n.Error.Message != "" {
				detail += ": " + n.Error.Message
			}
		}
		table.Append([]string{
			strings.Join(m.Path, " / "),
			n.Kind,
			n.Outcome,
			fmt.Sprintf("%.4f", n.Elapsed),
			detail,
		})
	}
	table.SetFooter([]string{"", "", result.Outcome, fmt.Sprintf("%.4f", result.Elapsed), ""})
	table.Render()
}
