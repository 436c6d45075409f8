// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"astroctl/internal/session"
)

// labelWidth aligns "label: value" rows.
const labelWidth = 11

// FormatStatus prints the session state as aligned rows.
func FormatStatus(w io.Writer, st session.State) {
	row(w, "session", orNone(st.SessionID))
	row(w, "task", orNone(st.TaskID))
	row(w, "phase", string(st.Phase))
	row(w, "threshold", thresholdText(st.Threshold, st.Confirmed))
	if st.PreviewWidth > 0 && st.PreviewHeight > 0 {
		row(w, "preview", fmt.Sprintf("%dx%d", st.PreviewWidth, st.PreviewHeight))
	}
	if !st.UpdatedAt.IsZero() {
		row(w, "updated", st.UpdatedAt.UTC().Format(time.RFC3339))
	}
}

// FormatTask prints a task ID line.
func FormatTask(w io.Writer, taskID string) {
	row(w, "task", taskID)
}

// FormatThreshold prints the current threshold.
// Format: "threshold: 0.40" with two decimals.
func FormatThreshold(w io.Writer, threshold float64, confirmed bool) {
	row(w, "threshold", thresholdText(threshold, confirmed))
}

// FormatWritten prints one line per file written.
func FormatWritten(w io.Writer, label, path string) {
	if path == "" {
		return
	}
	row(w, label, path)
}

// FormatQRVersion prints the QR version the backend used.
func FormatQRVersion(w io.Writer, version int) {
	row(w, "version", fmt.Sprintf("%d", version))
}

// FormatStreamLine prints one solver log line. Embedded carriage returns
// are dropped so progress output cannot overwrite earlier lines.
func FormatStreamLine(w io.Writer, line string) {
	fmt.Fprintln(w, strings.ReplaceAll(line, "\r", ""))
}

// FormatBlueprint prints blueprint text under a separator.
func FormatBlueprint(w io.Writer, blueprint string) {
	fmt.Fprintln(w, "------------")
	fmt.Fprintln(w, strings.TrimSpace(blueprint))
}

func row(w io.Writer, label, value string) {
	fmt.Fprintf(w, "%-*s %s\n", labelWidth, label+":", value)
}

func thresholdText(v float64, confirmed bool) string {
	if confirmed {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.2f (provisional)", v)
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}
