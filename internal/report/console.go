// SPDX-License-Identifier: Apache-2.0

package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/uecfg/uecfg/internal/core/check"
	"github.com/uecfg/uecfg/internal/probe"
	"github.com/uecfg/uecfg/internal/profile"
)

// ConsoleOptions tunes the console renderer.
type ConsoleOptions struct {
	Verbose bool
	NoColor bool
}

var statusColors = map[check.Status]*color.Color{
	check.StatusPass:          color.New(color.FgGreen),
	check.StatusWarn:          color.New(color.FgYellow),
	check.StatusFail:          color.New(color.FgRed),
	check.StatusSkip:          color.New(color.FgCyan),
	check.StatusNotApplicable: color.New(color.FgHiBlack),
}

func statusLabel(status check.Status, noColor bool) string {
	c, ok := statusColors[status]
	if !ok || noColor {
		return string(status)
	}
	return c.Sprint(string(status))
}

func progressBar(completed, total int) string {
	const width = 28
	if total == 0 {
		return "[" + strings.Repeat("-", width) + "]"
	}
	filled := width * completed / total
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat("#", filled), strings.Repeat("-", width-filled), completed, total)
}

// RenderConsole writes the human-readable scan report.
func RenderConsole(w io.Writer, scan *probe.ScanData, opts ConsoleOptions) {
	header := fmt.Sprintf("%s @ %s", scan.Metadata["host"], scan.Metadata["timestamp"])
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	phaseScores := scan.PhaseScores()
	for _, phase := range scan.Phases() {
		results := scan.Results[phase]
		passed := 0
		for _, result := range results {
			if result.Status == check.StatusPass {
				passed++
			}
		}
		mode := scan.Modes[phase]
		modeSuffix := ""
		if mode != "" && mode != profile.ModeRequired {
			modeSuffix = fmt.Sprintf(" [%s]", mode)
		}
		fmt.Fprintf(w, "%s (%.0f/100)%s\n", probe.PhaseName(phase), phaseScores[phase], modeSuffix)
		fmt.Fprintln(w, progressBar(passed, len(results)))
		for _, result := range results {
			fmt.Fprintf(w, " - %s %s\n", statusLabel(result.Status, opts.NoColor), result.Summary)
			if opts.Verbose || (result.Status != check.StatusPass && result.Status != check.StatusNotApplicable) {
				if result.Details != "" {
					fmt.Fprintf(w, "   %s\n", result.Details)
				}
				if len(result.Evidence) > 0 {
					fmt.Fprintf(w, "   Evidence: %s\n", result.Evidence[0])
				}
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Final readiness: %.0f/100\n", scan.TotalScore())
	for _, phase := range scan.Phases() {
		fmt.Fprintf(w, "  Phase %d: %.0f/100\n", phase, phaseScores[phase])
	}

	actions := CollectActions(scan)
	if len(actions) > 0 {
		fmt.Fprintln(w, "\nNext actions:")
		for i, action := range actions {
			fmt.Fprintf(w, " %d. %s\n", i+1, action.Description)
			for _, cmd := range action.Commands {
				fmt.Fprintf(w, "    %s\n", cmd)
			}
		}
	}
}
