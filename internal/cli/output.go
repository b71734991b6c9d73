package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"
)

func placementColumn(r row) string {
	if idx, ok := r.Placement.Index(); ok {
		return strconv.FormatInt(idx, 10)
	}
	return "-"
}

func printRows(w io.Writer, format string, e *entity, rows []row) error {
	if format == "json" {
		values := make([]any, len(rows))
		for i, r := range rows {
			values[i] = r.Value
		}
		return json.NewEncoder(w).Encode(values)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if e.parent != "" {
		fmt.Fprintf(tw, "#\tTITLE\tID\t%s\n", strings.ToUpper(e.parent))
	} else {
		fmt.Fprintln(tw, "#\tTITLE\tID")
	}
	for _, r := range rows {
		if e.parent != "" {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", placementColumn(r), r.Title, r.ID, r.Parent)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", placementColumn(r), r.Title, r.ID)
		}
	}
	return tw.Flush()
}

func printRow(w io.Writer, format string, e *entity, r row) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(r.Value)
	}
	_, err := fmt.Fprintf(w, "%s %s %s %q\n", e.name, r.ID, r.Placement, r.Title)
	return err
}
