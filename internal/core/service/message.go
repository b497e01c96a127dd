package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

const summaryTitle = "SmartVault Backup Summary"

// FormatSelector renders tag filters as sorted "key=value" pairs.
func FormatSelector(selector map[string]string) string {
	pairs := make([]string, 0, len(selector))
	for k, v := range selector {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

func formatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

func BuildNoInstancesNotification(selector map[string]string, subject string) domain.Notification {
	return domain.Notification{
		Subject: subject,
		Body:    fmt.Sprintf("No instances found with %s — skipping snapshot.", FormatSelector(selector)),
	}
}

func BuildFailureNotification(summary domain.BackupSummary, subject string, err error) domain.Notification {
	var b strings.Builder
	b.WriteString(summaryTitle + "\n")
	b.WriteString(strings.Repeat("-", len(summaryTitle)) + "\n")
	writeHeader(&b, summary)
	fmt.Fprintf(&b, "Backup run failed: %v\n", err)
	return domain.Notification{Subject: subject, Body: b.String()}
}

func BuildSummaryNotification(summary domain.BackupSummary, subject string) domain.Notification {
	title := summaryTitle
	if summary.DryRun {
		title += " (dry run)"
	}

	var b strings.Builder
	b.WriteString(title + "\n")
	b.WriteString(strings.Repeat("-", len(title)) + "\n")
	writeHeader(&b, summary)

	if summary.DryRun {
		planned := make([]string, 0, len(summary.Created))
		for _, c := range summary.Created {
			planned = append(planned, fmt.Sprintf("%s (%s)", c.VolumeID, c.InstanceID))
		}
		fmt.Fprintf(&b, "Volumes to snapshot: %s\n", formatList(planned))
		fmt.Fprintf(&b, "Snapshots to delete: %s\n", formatList(summary.Deleted))
	} else {
		fmt.Fprintf(&b, "Created snapshots: %s\n", formatList(summary.CreatedIDs()))
		fmt.Fprintf(&b, "Deleted old snapshots: %s\n", formatList(summary.Deleted))
	}

	if len(summary.Skipped) > 0 {
		b.WriteString("Skipped:\n")
		for _, s := range summary.Skipped {
			fmt.Fprintf(&b, "  - %s %s: %s\n", s.Kind, s.ID, s.Reason)
		}
	}
	if len(summary.Failures) > 0 {
		b.WriteString("Failures:\n")
		for _, f := range summary.Failures {
			fmt.Fprintf(&b, "  - %s\n", f.Error())
		}
	}

	return domain.Notification{Subject: subject, Body: b.String()}
}

func writeHeader(b *strings.Builder, summary domain.BackupSummary) {
	fmt.Fprintf(b, "Date: %s\n", summary.Date)
	if summary.Identity.AccountID != "" {
		fmt.Fprintf(b, "Account: %s (%s)\n", summary.Identity.AccountID, summary.Identity.Region)
	}
	fmt.Fprintf(b, "Selector: %s\n", FormatSelector(summary.Selector))
	fmt.Fprintf(b, "Retention: %d days\n", summary.RetentionDays)
}
