package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/lorrc/user-directory/internal/core/domain"
)

// ANSI shading applied to every other row when colors are enabled.
const (
	ansiShade = "\x1b[48;5;236m"
	ansiReset = "\x1b[0m"
)

// RenderUsers writes rows as an aligned table followed by a count line.
// total is the size of the unfiltered collection.
func RenderUsers(w io.Writer, rows []domain.User, total int, color bool) error {
	if len(rows) == 0 {
		msg := "No users"
		if total > 0 {
			msg = "No matches"
		}
		_, err := fmt.Fprintln(w, msg)
		return err
	}

	var table bytes.Buffer
	tw := tabwriter.NewWriter(&table, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tFIRST NAME\tLAST NAME\tCOUNTRY")
	for i, u := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, u.FirstName, u.LastName, u.Country)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if err := writeShaded(w, &table, color); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d of %d users\n", len(rows), total)
	return err
}

// RenderDeletions writes journal records as an aligned table.
func RenderDeletions(w io.Writer, records []domain.DeletionRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No deletions recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "REQUESTED AT\tUSER ID\tNAME\tCOUNTRY")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\t%s\n",
			r.RequestedAt.UTC().Format(time.RFC3339),
			r.UserID,
			r.FirstName,
			r.LastName,
			r.Country,
		)
	}
	return tw.Flush()
}

// writeShaded copies the table, shading odd data rows. Escapes are added
// after alignment so they do not skew column widths.
func writeShaded(w io.Writer, table io.Reader, color bool) error {
	scanner := bufio.NewScanner(table)
	for line := 0; scanner.Scan(); line++ {
		text := scanner.Text()
		if color && line > 0 && line%2 == 1 {
			text = ansiShade + text + ansiReset
		}
		if _, err := fmt.Fprintln(w, text); err != nil {
			return err
		}
	}
	return scanner.Err()
}
