package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/roach88/logbook/internal/eventlog"
)

// tsLayout renders entry timestamps in text output.
const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// renderPage writes one line per entry and a footer.
func renderPage(w io.Writer, page eventlog.Page, offset int) {
	if len(page.Items) == 0 {
		fmt.Fprintf(w, "No entries (total %d)\n", page.Total)
		return
	}
	for _, e := range page.Items {
		fmt.Fprintln(w, formatEntry(e))
	}
	fmt.Fprintf(w, "-- %d-%d of %d\n", offset+1, offset+len(page.Items), page.Total)
}

// formatEntry renders e on one line.
func formatEntry(e eventlog.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-5s  %-10s  %s",
		time.UnixMilli(e.Ts).UTC().Format(tsLayout), e.Kind, e.Scope, e.Message)

	if e.OK != nil {
		fmt.Fprintf(&b, "  ok=%t", *e.OK)
	}
	if e.Status != nil {
		fmt.Fprintf(&b, "  status=%d", *e.Status)
	}
	if e.Error != "" {
		fmt.Fprintf(&b, "  error=%q", e.Error)
	}
	if len(e.Meta) > 0 {
		keys := make([]string, 0, len(e.Meta))
		for k := range e.Meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s=%v", k, e.Meta[k])
		}
	}
	return b.String()
}
