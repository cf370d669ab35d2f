package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/rosterkeeper/internal/permissions"
)

const defaultAuditLimit = 20

var viewAuditLog = permissions.ViewAuditLog

// Audit prints the newest audit entries; the optional argument is how
// many, 0 meaning all.
func (a *App) Audit(ctx context.Context, args []string) error {
	limit := defaultAuditLimit
	switch len(args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return usage("audit [limit]")
		}
		limit = n
	default:
		return usage("audit [limit]")
	}

	if _, err := a.authorize(ctx, &viewAuditLog); err != nil {
		return err
	}

	entries, err := a.svc.ListAudit(ctx, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No audit entries.")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tACTION\tUSER\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format(timeLayout), e.Action, e.Username, e.Details)
	}
	return tw.Flush()
}
