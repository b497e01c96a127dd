package service

import (
	"fmt"
	"time"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

// RetentionPolicy decides which date-tagged snapshots have outlived the
// retention window.
type RetentionPolicy struct {
	Days   int
	TagKey string
	Layout string
}

// Cutoff is now minus the retention window. A snapshot dated strictly before
// it is expired.
func (p RetentionPolicy) Cutoff(now time.Time) time.Time {
	return now.UTC().Add(-time.Duration(p.Days) * 24 * time.Hour)
}

// Evaluate splits snapshots into expired ones and ones it cannot judge.
// Snapshots whose id is in exclude are neither.
func (p RetentionPolicy) Evaluate(snapshots []domain.Snapshot, now time.Time, exclude map[string]struct{}) ([]domain.Snapshot, []domain.SkippedItem) {
	cutoff := p.Cutoff(now)
	var expired []domain.Snapshot
	var skipped []domain.SkippedItem

	for _, snap := range snapshots {
		if _, ok := exclude[snap.ID]; ok {
			continue
		}
		raw, ok := snap.Tags[p.TagKey]
		if !ok {
			skipped = append(skipped, domain.SkippedItem{
				Kind:   domain.KindSnapshot,
				ID:     snap.ID,
				Reason: fmt.Sprintf("missing %s tag", p.TagKey),
			})
			continue
		}
		createdOn, err := time.ParseInLocation(p.Layout, raw, time.UTC)
		if err != nil {
			skipped = append(skipped, domain.SkippedItem{
				Kind:   domain.KindSnapshot,
				ID:     snap.ID,
				Reason: fmt.Sprintf("unparsable %s tag %q", p.TagKey, raw),
			})
			continue
		}
		if createdOn.Before(cutoff) {
			expired = append(expired, snap)
		}
	}
	return expired, skipped
}
