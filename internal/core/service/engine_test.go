package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/olusolaa/smartvault/internal/core/domain"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
	"github.com/olusolaa/smartvault/mocks"
)

var fixedNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

type BackupEngineTestSuite struct {
	suite.Suite
	platform *mocks.MockBackupPlatform
	notifier *mocks.MockNotifier
	reporter *mocks.MockReporter
	logger   *mocks.MockLogger
	cfg      EngineConfig
	ctx      context.Context
}

func (s *BackupEngineTestSuite) SetupTest() {
	s.platform = new(mocks.MockBackupPlatform)
	s.notifier = new(mocks.MockNotifier)
	s.reporter = new(mocks.MockReporter)
	s.logger = mocks.NewPermissiveLogger()
	s.ctx = context.Background()
	s.cfg = EngineConfig{
		Selector:      domain.DefaultSelector(),
		RetentionDays: 7,
		Concurrency:   2,
	}
	s.notifier.On("Type").Return("sns").Maybe()
	s.platform.On("Identity", mock.Anything).
		Return(domain.AccountIdentity{AccountID: "111122223333", Region: "us-east-1"}, nil).Maybe()
}

func TestBackupEngineTestSuite(t *testing.T) {
	suite.Run(t, new(BackupEngineTestSuite))
}

func (s *BackupEngineTestSuite) engine() *BackupEngine {
	e, err := NewBackupEngine(s.platform, s.notifier, s.reporter, s.logger, s.cfg,
		WithClock(func() time.Time { return fixedNow }))
	s.Require().NoError(err)
	return e
}

func (s *BackupEngineTestSuite) expectInstances(instances ...domain.Instance) {
	s.platform.On("ListInstances", mock.Anything, map[string]string{"tag:Backup": "true"}).
		Return(instances, nil).Once()
}

func (s *BackupEngineTestSuite) expectSnapshot(instanceID, volumeID, snapshotID string) {
	s.platform.On("CreateSnapshot", mock.Anything, domain.SnapshotRequest{
		InstanceID:  instanceID,
		VolumeID:    volumeID,
		Description: "SmartVault snapshot of " + instanceID,
	}).Return(domain.Snapshot{ID: snapshotID, VolumeID: volumeID, InstanceID: instanceID}, nil).Once()
	s.platform.On("TagSnapshot", mock.Anything, snapshotID, map[string]string{
		"CreatedOn":        "2026-03-15",
		"SourceInstanceId": instanceID,
	}).Return(nil).Once()
}

func bodyContains(parts ...string) any {
	return mock.MatchedBy(func(n domain.Notification) bool {
		if n.Subject != domain.DefaultSubject {
			return false
		}
		for _, p := range parts {
			if !strings.Contains(n.Body, p) {
				return false
			}
		}
		return true
	})
}

func datedSnapshot(id, date string) domain.Snapshot {
	return domain.Snapshot{ID: id, Tags: map[string]string{"CreatedOn": date}}
}

func (s *BackupEngineTestSuite) TestNewBackupEngine_Validation() {
	_, err := NewBackupEngine(nil, s.notifier, s.reporter, s.logger, s.cfg)
	s.True(apperrors.Is(err, apperrors.CodeConfigValidation))

	cfg := s.cfg
	cfg.RetentionDays = 0
	_, err = NewBackupEngine(s.platform, s.notifier, s.reporter, s.logger, cfg)
	s.True(apperrors.Is(err, apperrors.CodeConfigValidation))

	cfg = s.cfg
	cfg.Selector = nil
	_, err = NewBackupEngine(s.platform, s.notifier, s.reporter, s.logger, cfg)
	s.True(apperrors.Is(err, apperrors.CodeConfigValidation))
}

func (s *BackupEngineTestSuite) TestRun_CreatesTagsAndExpires() {
	s.expectInstances(
		domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1", "vol-1b"}},
		domain.Instance{ID: "i-2", VolumeIDs: []string{"vol-2"}},
	)
	s.expectSnapshot("i-1", "vol-1", "snap-1")
	s.expectSnapshot("i-2", "vol-2", "snap-2")
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{
		datedSnapshot("snap-old", "2026-03-01"),
		datedSnapshot("snap-edge", "2026-03-08"),
		datedSnapshot("snap-recent", "2026-03-10"),
		datedSnapshot("snap-1", "2026-03-15"),
		{ID: "snap-untagged"},
	}, nil).Once()
	s.platform.On("DeleteSnapshot", mock.Anything, "snap-old").Return(nil).Once()
	s.platform.On("DeleteSnapshot", mock.Anything, "snap-edge").Return(nil).Once()
	s.notifier.On("Notify", mock.Anything, bodyContains(
		"Created snapshots: [snap-1, snap-2]",
		"Deleted old snapshots: [snap-old, snap-edge]",
		"Account: 111122223333 (us-east-1)",
	)).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.AnythingOfType("domain.BackupSummary")).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().NoError(err)
	s.Equal("2026-03-15", summary.Date)
	s.Equal([]string{"snap-1", "snap-2"}, summary.CreatedIDs())
	s.Equal([]string{"snap-old", "snap-edge"}, summary.Deleted)
	s.Require().Len(summary.Skipped, 1)
	s.Equal("snap-untagged", summary.Skipped[0].ID)
	s.False(summary.HasFailures())
	s.platform.AssertNotCalled(s.T(), "DeleteSnapshot", mock.Anything, "snap-recent")
	s.platform.AssertNotCalled(s.T(), "DeleteSnapshot", mock.Anything, "snap-1")
	s.platform.AssertExpectations(s.T())
	s.notifier.AssertExpectations(s.T())
	s.reporter.AssertExpectations(s.T())
}

func (s *BackupEngineTestSuite) TestRun_AllVolumesAndExtraTags() {
	s.cfg.AllVolumes = true
	s.cfg.ExtraTags = map[string]string{"Team": "ops", "CreatedOn": "ignored"}
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1", "vol-1b"}})
	for vol, snap := range map[string]string{"vol-1": "snap-1", "vol-1b": "snap-1b"} {
		s.platform.On("CreateSnapshot", mock.Anything, mock.MatchedBy(func(r domain.SnapshotRequest) bool {
			return r.VolumeID == vol
		})).Return(domain.Snapshot{ID: snap}, nil).Once()
		s.platform.On("TagSnapshot", mock.Anything, snap, map[string]string{
			"CreatedOn":        "2026-03-15",
			"SourceInstanceId": "i-1",
			"Team":             "ops",
		}).Return(nil).Once()
	}
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{}, nil).Once()
	s.notifier.On("Notify", mock.Anything, bodyContains("Created snapshots: [snap-1, snap-1b]")).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().NoError(err)
	s.Len(summary.Created, 2)
	s.platform.AssertExpectations(s.T())
}

func (s *BackupEngineTestSuite) TestRun_NoInstances() {
	s.expectInstances()
	s.notifier.On("Notify", mock.Anything, domain.Notification{
		Subject: domain.DefaultSubject,
		Body:    "No instances found with Backup=true — skipping snapshot.",
	}).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().NoError(err)
	s.True(summary.NoInstances)
	s.platform.AssertNotCalled(s.T(), "ListSnapshots", mock.Anything, mock.Anything)
	s.notifier.AssertExpectations(s.T())
}

func (s *BackupEngineTestSuite) TestRun_ListInstancesFailureAborts() {
	s.platform.On("ListInstances", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("boom")).Once()
	s.notifier.On("Notify", mock.Anything, bodyContains("Backup run failed")).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodeInventoryError))
	s.Require().Len(summary.Failures, 1)
	s.Equal(domain.OpListInstances, summary.Failures[0].Operation)
	s.Equal("Backup=true", summary.Failures[0].ID)
	s.platform.AssertNotCalled(s.T(), "CreateSnapshot", mock.Anything, mock.Anything)
	s.reporter.AssertNotCalled(s.T(), "Report", mock.Anything, mock.Anything)
	s.notifier.AssertExpectations(s.T())
}

func (s *BackupEngineTestSuite) TestRun_PartialFailureStillNotifies() {
	s.expectInstances(
		domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}},
		domain.Instance{ID: "i-2", VolumeIDs: []string{"vol-2"}},
		domain.Instance{ID: "i-3"},
	)
	s.expectSnapshot("i-1", "vol-1", "snap-1")
	s.platform.On("CreateSnapshot", mock.Anything, mock.MatchedBy(func(r domain.SnapshotRequest) bool {
		return r.VolumeID == "vol-2"
	})).Return(domain.Snapshot{}, fmt.Errorf("quota exceeded")).Once()
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{
		datedSnapshot("snap-busy", "2026-01-01"),
		datedSnapshot("snap-gone", "2026-01-02"),
		datedSnapshot("snap-fail", "2026-01-03"),
	}, nil).Once()
	s.platform.On("DeleteSnapshot", mock.Anything, "snap-busy").
		Return(apperrors.New(apperrors.CodeResourceInUse, "in use by ami-1")).Once()
	s.platform.On("DeleteSnapshot", mock.Anything, "snap-gone").
		Return(apperrors.New(apperrors.CodeResourceNotFound, "not found")).Once()
	s.platform.On("DeleteSnapshot", mock.Anything, "snap-fail").
		Return(apperrors.New(apperrors.CodePlatformAPIError, "api error")).Once()
	s.notifier.On("Notify", mock.Anything, bodyContains(
		"Created snapshots: [snap-1]",
		"Deleted old snapshots: []",
		"Instance i-3: no EBS volume attached",
		"Snapshot snap-busy: in use",
		"Failures:",
		"CreateSnapshot vol-2",
		"DeleteSnapshot snap-fail",
	)).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodePartialFailure))
	s.Len(summary.Failures, 2)
	s.Len(summary.Skipped, 3)
	s.Empty(summary.Deleted)
	s.notifier.AssertExpectations(s.T())
}

func (s *BackupEngineTestSuite) TestRun_TagFailureCountsAsCreated() {
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}})
	s.platform.On("CreateSnapshot", mock.Anything, mock.Anything).Return(domain.Snapshot{ID: "snap-1"}, nil).Once()
	s.platform.On("TagSnapshot", mock.Anything, "snap-1", mock.Anything).
		Return(apperrors.New(apperrors.CodeThrottled, "request limit exceeded")).Once()
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{}, nil).Once()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.Equal([]string{"snap-1"}, summary.CreatedIDs())
	s.Require().Len(summary.Failures, 1)
	s.Equal(domain.OpTagSnapshot, summary.Failures[0].Operation)
	s.Equal(apperrors.CodeTaggingError, apperrors.GetCode(summary.Failures[0].Err))
	s.ErrorContains(summary.Failures[0].Err, "request limit exceeded")
}

func (s *BackupEngineTestSuite) TestRun_ListSnapshotsFailureSkipsCleanup() {
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}})
	s.expectSnapshot("i-1", "vol-1", "snap-1")
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return(nil, fmt.Errorf("denied")).Once()
	s.notifier.On("Notify", mock.Anything, bodyContains("Created snapshots: [snap-1]", "ListSnapshots")).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.True(apperrors.Is(err, apperrors.CodePartialFailure))
	s.Equal(domain.OpListSnapshots, summary.Failures[0].Operation)
	s.platform.AssertNotCalled(s.T(), "DeleteSnapshot", mock.Anything, mock.Anything)
}

func (s *BackupEngineTestSuite) TestRun_DryRunMakesNoChanges() {
	s.cfg.DryRun = true
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}})
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").
		Return([]domain.Snapshot{datedSnapshot("snap-old", "2026-01-01")}, nil).Once()
	s.reporter.On("Report", mock.Anything, mock.MatchedBy(func(sum domain.BackupSummary) bool {
		return sum.DryRun
	})).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().NoError(err)
	s.Equal([]domain.CreatedSnapshot{{InstanceID: "i-1", VolumeID: "vol-1"}}, summary.Created)
	s.Empty(summary.CreatedIDs())
	s.Equal([]string{"vol-1"}, summary.PlannedVolumeIDs())
	s.Equal([]string{"snap-old"}, summary.Deleted)
	s.platform.AssertNotCalled(s.T(), "CreateSnapshot", mock.Anything, mock.Anything)
	s.platform.AssertNotCalled(s.T(), "TagSnapshot", mock.Anything, mock.Anything, mock.Anything)
	s.platform.AssertNotCalled(s.T(), "DeleteSnapshot", mock.Anything, mock.Anything)
	s.notifier.AssertNotCalled(s.T(), "Notify", mock.Anything, mock.Anything)
}

func (s *BackupEngineTestSuite) TestRun_NotificationFailure() {
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}})
	s.expectSnapshot("i-1", "vol-1", "snap-1")
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{}, nil).Once()
	s.notifier.On("Notify", mock.Anything, mock.Anything).
		Return(apperrors.New(apperrors.CodePlatformAuthError, "denied")).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.Equal(apperrors.CodeNotificationError, apperrors.GetCode(err))
	s.Equal([]string{"snap-1"}, summary.CreatedIDs())
}

func (s *BackupEngineTestSuite) TestRun_NotificationFailureWithPartialFailure() {
	s.expectInstances(domain.Instance{ID: "i-1", VolumeIDs: []string{"vol-1"}})
	s.platform.On("CreateSnapshot", mock.Anything, mock.Anything).
		Return(domain.Snapshot{}, apperrors.New(apperrors.CodePlatformAPIError, "create failed")).Once()
	s.platform.On("ListSnapshots", mock.Anything, "CreatedOn").Return([]domain.Snapshot{}, nil).Once()
	s.notifier.On("Notify", mock.Anything, mock.Anything).
		Return(apperrors.New(apperrors.CodePlatformAuthError, "denied")).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().Error(err)
	s.Equal(apperrors.CodeNotificationError, apperrors.GetCode(err))
	s.ErrorContains(err, "create failed")
	s.ErrorContains(err, "denied")
	s.Require().Len(summary.Failures, 1)
	s.Equal(apperrors.CodeSnapshotError, apperrors.GetCode(summary.Failures[0].Err))
}

func (s *BackupEngineTestSuite) TestRun_IdentityFailureIsNotFatal() {
	s.platform = new(mocks.MockBackupPlatform)
	s.platform.On("Identity", mock.Anything).Return(domain.AccountIdentity{Region: "eu-west-1"}, fmt.Errorf("sts down")).Once()
	s.expectInstances()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(nil).Once()

	summary, err := s.engine().Run(s.ctx)

	s.Require().NoError(err)
	s.Equal("eu-west-1", summary.Identity.Region)
	s.Empty(summary.Identity.AccountID)
}

func (s *BackupEngineTestSuite) TestRun_ReporterErrorIsLoggedOnly() {
	s.expectInstances()
	s.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Once()
	s.reporter.On("Report", mock.Anything, mock.Anything).Return(fmt.Errorf("closed pipe")).Once()

	_, err := s.engine().Run(s.ctx)

	s.NoError(err)
}
