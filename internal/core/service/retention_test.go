package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olusolaa/smartvault/internal/core/domain"
)

func TestRetentionPolicy_Cutoff(t *testing.T) {
	p := RetentionPolicy{Days: 7, TagKey: domain.TagCreatedOn, Layout: domain.DefaultDateLayout}
	local := time.FixedZone("UTC+2", 2*60*60)

	cutoff := p.Cutoff(time.Date(2026, 3, 15, 1, 0, 0, 0, local))

	assert.Equal(t, time.Date(2026, 3, 7, 23, 0, 0, 0, time.UTC), cutoff)
}

func TestRetentionPolicy_Evaluate(t *testing.T) {
	p := RetentionPolicy{Days: 7, TagKey: domain.TagCreatedOn, Layout: domain.DefaultDateLayout}
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		snapshot    domain.Snapshot
		wantExpired bool
		wantSkipped string
	}{
		{name: "well past window", snapshot: datedSnapshot("snap-a", "2026-02-01"), wantExpired: true},
		{name: "one day past window", snapshot: datedSnapshot("snap-b", "2026-03-07"), wantExpired: true},
		{name: "exactly at cutoff is kept", snapshot: datedSnapshot("snap-c", "2026-03-08")},
		{name: "inside window", snapshot: datedSnapshot("snap-d", "2026-03-14")},
		{name: "future date", snapshot: datedSnapshot("snap-e", "2027-01-01")},
		{name: "missing tag", snapshot: domain.Snapshot{ID: "snap-f", Tags: map[string]string{"Name": "x"}}, wantSkipped: "missing CreatedOn tag"},
		{name: "unparsable tag", snapshot: datedSnapshot("snap-g", "15/03/2026"), wantSkipped: `unparsable CreatedOn tag "15/03/2026"`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expired, skipped := p.Evaluate([]domain.Snapshot{tc.snapshot}, now, nil)
			if tc.wantExpired {
				require.Len(t, expired, 1)
				assert.Equal(t, tc.snapshot.ID, expired[0].ID)
			} else {
				assert.Empty(t, expired)
			}
			if tc.wantSkipped != "" {
				require.Len(t, skipped, 1)
				assert.Equal(t, domain.SkippedItem{Kind: domain.KindSnapshot, ID: tc.snapshot.ID, Reason: tc.wantSkipped}, skipped[0])
			} else {
				assert.Empty(t, skipped)
			}
		})
	}
}

func TestRetentionPolicy_EvaluateExcludes(t *testing.T) {
	p := RetentionPolicy{Days: 1, TagKey: "BackupDate", Layout: "20060102"}
	now := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	snaps := []domain.Snapshot{
		{ID: "snap-1", Tags: map[string]string{"BackupDate": "20260101"}},
		{ID: "snap-2", Tags: map[string]string{"BackupDate": "20260102"}},
		{ID: "snap-3"},
	}

	expired, skipped := p.Evaluate(snaps, now, map[string]struct{}{"snap-1": {}, "snap-3": {}})

	require.Len(t, expired, 1)
	assert.Equal(t, "snap-2", expired[0].ID)
	assert.Empty(t, skipped)
}
