package output

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/jamesainslie/cascade/pkg/cascade/manifest"
)

// PrettyFormatter renders runs with lipgloss for a terminal.
type PrettyFormatter struct{}

// FormatRun writes the header, one row per archive, the totals and any
// removal problems.
func (f *PrettyFormatter) FormatRun(w *bytes.Buffer, run *manifest.Run) error {
	w.WriteString(f.formatHeader(run))
	w.WriteString("\n")
	w.WriteString(f.formatArchives(run))
	w.WriteString(f.formatFooter(run))
	w.WriteString("\n")

	if problems := f.formatProblems(run); problems != "" {
		w.WriteString("\n")
		w.WriteString(problems)
	}
	return nil
}

func (f *PrettyFormatter) formatHeader(run *manifest.Run) string {
	lines := []string{
		field("Input:", ValueStyle.Render(run.InputDir)),
		field("Output:", ValueStyle.Render(run.OutputDir)),
	}

	info := []string{}
	if run.ID != "" {
		info = append(info, field("Run:", MutedStyle.Render(shortID(run.ID))))
	}
	if !run.StartedAt.IsZero() && !run.FinishedAt.IsZero() {
		info = append(info, field("Took:", ValueStyle.Render(formatDuration(run.FinishedAt.Sub(run.StartedAt)))))
	}
	removal := "off"
	if run.Remove {
		removal = run.RemovalMode
		if removal == "" {
			removal = "on"
		}
	}
	info = append(info, field("Removal:", ValueStyle.Render(removal)))
	lines = append(lines, strings.Join(info, "  "))

	if run.Canceled {
		lines = append(lines, WarningStyle.Bold(true).Render("Run interrupted; remaining files were not processed"))
	}
	return HeaderBox.Render(strings.Join(lines, "\n"))
}

func (f *PrettyFormatter) formatArchives(run *manifest.Run) string {
	if len(run.Archives) == 0 {
		return MutedStyle.Render("  No archives found") + "\n"
	}

	statusWidth := len("STATUS")
	for _, a := range run.Archives {
		statusWidth = max(statusWidth, len(a.Status))
	}
	const sizeWidth = 10

	var sb strings.Builder
	fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("STATUS", statusWidth)),
		TableHeaderStyle.Render("TRIES"),
		TableHeaderStyle.Render(padLeft("SIZE", sizeWidth)),
		TableHeaderStyle.Render("PATH"))

	for _, a := range run.Archives {
		size := ""
		if a.Bytes > 0 {
			size = humanize.IBytes(uint64(a.Bytes))
		}
		fmt.Fprintf(&sb, "  %s  %s  %s  %s\n",
			statusStyle(a.Status).Render(padRight(a.Status, statusWidth)),
			MutedStyle.Render(padLeft(fmt.Sprintf("%d", a.Attempts), len("TRIES"))),
			SizeStyle.Render(padLeft(size, sizeWidth)),
			PathStyle.Render(relativeTo(run.InputDir, a.Path)))
	}
	return sb.String()
}

func (f *PrettyFormatter) formatFooter(run *manifest.Run) string {
	s := run.Summary
	parts := []string{
		field("Extracted:", SuccessStyle.Render(fmt.Sprintf("%d", s.Extracted))),
		field("No password:", WarningStyle.Render(fmt.Sprintf("%d", s.NoPassword))),
		field("Failed:", ErrorStyle.Render(fmt.Sprintf("%d", s.Failed))),
		field("Skipped:", MutedStyle.Render(fmt.Sprintf("%d", s.Skipped))),
		field("Written:", SizeStyle.Render(humanize.IBytes(uint64(s.BytesWritten)))),
	}
	if run.Remove {
		parts = append(parts, field("Removed:",
			SizeStyle.Render(fmt.Sprintf("%d (%s)", s.FilesRemoved, humanize.IBytes(uint64(s.BytesRemoved))))))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

// formatProblems lists failed archives and failed removals.
func (f *PrettyFormatter) formatProblems(run *manifest.Run) string {
	var lines []string
	for _, a := range run.Archives {
		if a.Status == "failed" && a.Error != "" {
			lines = append(lines, ErrorStyle.Render(fmt.Sprintf("  %s: %s", relativeTo(run.InputDir, a.Path), a.Error)))
		}
	}
	for _, r := range run.Removed {
		if r.Error != "" {
			lines = append(lines, WarningStyle.Render(fmt.Sprintf("  not removed %s: %s", relativeTo(run.InputDir, r.Path), r.Error)))
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return WarningStyle.Bold(true).Render("Problems:") + "\n" + strings.Join(lines, "\n") + "\n"
}

// FormatHistory writes one line per run.
func (f *PrettyFormatter) FormatHistory(w *bytes.Buffer, runs []manifest.Run) error {
	if len(runs) == 0 {
		w.WriteString(MutedStyle.Render("No runs recorded") + "\n")
		return nil
	}

	fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
		TableHeaderStyle.Render(padRight("ID", 8)),
		TableHeaderStyle.Render(padRight("STARTED", 16)),
		TableHeaderStyle.Render(padLeft("OK", 4)),
		TableHeaderStyle.Render(padLeft("FAIL", 4)),
		TableHeaderStyle.Render(padLeft("REMOVED", 10)),
		TableHeaderStyle.Render("INPUT"))

	for _, run := range runs {
		s := run.Summary
		started := humanize.Time(run.StartedAt)
		if run.Canceled {
			started += "*"
		}
		fmt.Fprintf(w, "%s  %s  %s  %s  %s  %s\n",
			MutedStyle.Render(padRight(shortID(run.ID), 8)),
			ValueStyle.Render(padRight(started, 16)),
			SuccessStyle.Render(padLeft(fmt.Sprintf("%d", s.Extracted), 4)),
			ErrorStyle.Render(padLeft(fmt.Sprintf("%d", s.Failed+s.NoPassword), 4)),
			SizeStyle.Render(padLeft(humanize.IBytes(uint64(s.BytesRemoved)), 10)),
			PathStyle.Render(run.InputDir))
	}
	return nil
}

func field(label, value string) string {
	return LabelStyle.Render(label) + " " + value
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// relativeTo shortens path for display when it lies under root.
func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}

func padLeft(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(s)) + s
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, int(sec)%60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
