package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	"github.com/olusolaa/smartvault/internal/errors"
)

const defaultConcurrency = 4

type EngineConfig struct {
	Selector          map[string]string
	DateTagKey        string
	DateLayout        string
	RetentionDays     int
	DescriptionPrefix string
	AllVolumes        bool
	ExtraTags         map[string]string
	Subject           string
	Concurrency       int
	DryRun            bool
}

type BackupEngine struct {
	platform ports.BackupPlatform
	notifier ports.Notifier
	reporter ports.Reporter
	logger   ports.Logger
	cfg      EngineConfig
	now      func() time.Time
}

type EngineOption func(*BackupEngine)

// WithClock overrides the time source used for the run date and cutoff.
func WithClock(now func() time.Time) EngineOption {
	return func(e *BackupEngine) { e.now = now }
}

func NewBackupEngine(
	platform ports.BackupPlatform,
	notifier ports.Notifier,
	reporter ports.Reporter,
	logger ports.Logger,
	cfg EngineConfig,
	opts ...EngineOption,
) (*BackupEngine, error) {
	if platform == nil {
		return nil, errors.New(errors.CodeConfigValidation, "backup platform cannot be nil")
	}
	if notifier == nil {
		return nil, errors.New(errors.CodeConfigValidation, "notifier cannot be nil")
	}
	if logger == nil {
		return nil, errors.New(errors.CodeConfigValidation, "logger cannot be nil")
	}
	if len(cfg.Selector) == 0 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "backup selector is empty",
			"Configure at least one backup.selector tag, e.g. Backup=true.")
	}
	if cfg.RetentionDays < 1 {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation,
			fmt.Sprintf("retention must be at least 1 day, got %d", cfg.RetentionDays),
			"Set backup.retention_days or RETENTION_DAYS to a positive number.")
	}
	if cfg.DateTagKey == "" {
		cfg.DateTagKey = domain.TagCreatedOn
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = domain.DefaultDateLayout
	}
	if cfg.DescriptionPrefix == "" {
		cfg.DescriptionPrefix = domain.DefaultDescriptionPrefix
	}
	if cfg.Subject == "" {
		cfg.Subject = domain.DefaultSubject
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	e := &BackupEngine{
		platform: platform,
		notifier: notifier,
		reporter: reporter,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *BackupEngine) policy() RetentionPolicy {
	return RetentionPolicy{Days: e.cfg.RetentionDays, TagKey: e.cfg.DateTagKey, Layout: e.cfg.DateLayout}
}

// Run performs one backup cycle: snapshot every selected instance, expire
// old snapshots and send one summary notification. Individual snapshot
// failures do not stop the run; they are reported and returned together.
func (e *BackupEngine) Run(ctx context.Context) (domain.BackupSummary, error) {
	now := e.now().UTC()
	summary := domain.BackupSummary{
		RunAt:         now,
		Date:          now.Format(e.cfg.DateLayout),
		Selector:      e.cfg.Selector,
		RetentionDays: e.cfg.RetentionDays,
		DryRun:        e.cfg.DryRun,
	}
	e.logger.Infof(ctx, "Starting backup run for %s (retention %d days, dry run %t)",
		FormatSelector(e.cfg.Selector), e.cfg.RetentionDays, e.cfg.DryRun)

	identity, err := e.platform.Identity(ctx)
	if err != nil {
		e.logger.Warnf(ctx, "Proceeding without account identity: %v", err)
	}
	summary.Identity = identity

	instances, err := e.platform.ListInstances(ctx, selectorFilters(e.cfg.Selector))
	if err != nil {
		runErr := errors.WithCause(err, errors.CodeInventoryError, "failed to list instances for backup")
		e.logger.Errorf(ctx, runErr, "Instance discovery failed")
		summary.Failures = append(summary.Failures, domain.Failure{
			Operation: domain.OpListInstances, Kind: domain.KindInstance, ID: FormatSelector(e.cfg.Selector), Err: runErr,
		})
		if notifyErr := e.notify(ctx, BuildFailureNotification(summary, e.cfg.Subject, runErr)); notifyErr != nil {
			e.logger.Errorf(ctx, notifyErr, "Failed to send failure notification")
		}
		return summary, runErr
	}

	if len(instances) == 0 {
		summary.NoInstances = true
		e.logger.Infof(ctx, "No instances found with %s, skipping snapshot", FormatSelector(e.cfg.Selector))
		notifyErr := e.notify(ctx, BuildNoInstancesNotification(e.cfg.Selector, e.cfg.Subject))
		e.report(ctx, summary)
		return summary, notifyErr
	}
	e.logger.Infof(ctx, "Found %d instance(s) to back up", len(instances))

	e.createSnapshots(ctx, instances, &summary)
	e.expireSnapshots(ctx, now, &summary)

	notifyErr := e.notify(ctx, BuildSummaryNotification(summary, e.cfg.Subject))
	e.report(ctx, summary)

	e.logger.Infof(ctx, "Backup run finished: %d created, %d deleted, %d skipped, %d failed",
		len(summary.Created), len(summary.Deleted), len(summary.Skipped), len(summary.Failures))
	return summary, runError(summary, notifyErr)
}

type snapshotJob struct {
	instance domain.Instance
	volumeID string
}

type snapshotResult struct {
	created  *domain.CreatedSnapshot
	failures []domain.Failure
}

func (e *BackupEngine) createSnapshots(ctx context.Context, instances []domain.Instance, summary *domain.BackupSummary) {
	var jobs []snapshotJob
	for _, inst := range instances {
		volumes := inst.VolumeIDs
		if !e.cfg.AllVolumes && len(volumes) > 1 {
			volumes = volumes[:1]
		}
		if len(volumes) == 0 {
			e.logger.Warnf(ctx, "Instance %s has no EBS volume attached, skipping", inst.ID)
			summary.Skipped = append(summary.Skipped, domain.SkippedItem{
				Kind:   domain.KindInstance,
				ID:     inst.ID,
				Reason: "no EBS volume attached",
			})
			continue
		}
		for _, vol := range volumes {
			jobs = append(jobs, snapshotJob{instance: inst, volumeID: vol})
		}
	}

	results := make([]snapshotResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = e.snapshotVolume(ctx, job, summary.Date)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range results {
		if res.created != nil {
			summary.Created = append(summary.Created, *res.created)
		}
		summary.Failures = append(summary.Failures, res.failures...)
	}
}

func (e *BackupEngine) snapshotVolume(ctx context.Context, job snapshotJob, date string) snapshotResult {
	log := e.logger.WithFields(map[string]any{"instance_id": job.instance.ID, "volume_id": job.volumeID})
	if ctx.Err() != nil {
		return snapshotResult{failures: []domain.Failure{{
			Operation: domain.OpCreateSnapshot, Kind: domain.KindVolume, ID: job.volumeID, Err: ctx.Err(),
		}}}
	}

	if e.cfg.DryRun {
		log.Infof(ctx, "Dry run: would snapshot volume %s", job.volumeID)
		return snapshotResult{created: &domain.CreatedSnapshot{InstanceID: job.instance.ID, VolumeID: job.volumeID}}
	}

	snap, err := e.platform.CreateSnapshot(ctx, domain.SnapshotRequest{
		InstanceID:  job.instance.ID,
		VolumeID:    job.volumeID,
		Description: fmt.Sprintf("%s %s", e.cfg.DescriptionPrefix, job.instance.ID),
	})
	if err != nil {
		wrapped := errors.WithCause(err, errors.CodeSnapshotError, "failed to create snapshot")
		log.Errorf(ctx, wrapped, "Snapshot creation failed")
		return snapshotResult{failures: []domain.Failure{{
			Operation: domain.OpCreateSnapshot, Kind: domain.KindVolume, ID: job.volumeID, Err: wrapped,
		}}}
	}
	log.Infof(ctx, "Created snapshot %s", snap.ID)

	res := snapshotResult{created: &domain.CreatedSnapshot{
		SnapshotID: snap.ID,
		InstanceID: job.instance.ID,
		VolumeID:   job.volumeID,
	}}
	if err := e.platform.TagSnapshot(ctx, snap.ID, e.snapshotTags(job.instance.ID, date)); err != nil {
		wrapped := errors.WithCause(err, errors.CodeTaggingError, "failed to tag snapshot")
		log.Errorf(ctx, wrapped, "Snapshot %s was created but not tagged; it will not be expired automatically", snap.ID)
		res.failures = append(res.failures, domain.Failure{
			Operation: domain.OpTagSnapshot, Kind: domain.KindSnapshot, ID: snap.ID, Err: wrapped,
		})
	}
	return res
}

// snapshotTags lets the date and source tags win over configured extras.
func (e *BackupEngine) snapshotTags(instanceID, date string) map[string]string {
	tags := make(map[string]string, len(e.cfg.ExtraTags)+2)
	for k, v := range e.cfg.ExtraTags {
		tags[k] = v
	}
	tags[e.cfg.DateTagKey] = date
	tags[domain.TagSourceInstance] = instanceID
	return tags
}

func (e *BackupEngine) expireSnapshots(ctx context.Context, now time.Time, summary *domain.BackupSummary) {
	snapshots, err := e.platform.ListSnapshots(ctx, e.cfg.DateTagKey)
	if err != nil {
		wrapped := errors.WithCause(err, errors.CodeRetentionError, "failed to list snapshots for retention")
		e.logger.Errorf(ctx, wrapped, "Snapshot listing failed, skipping cleanup")
		summary.Failures = append(summary.Failures, domain.Failure{
			Operation: domain.OpListSnapshots, Kind: domain.KindSnapshot, ID: e.cfg.DateTagKey, Err: wrapped,
		})
		return
	}

	exclude := make(map[string]struct{}, len(summary.Created))
	for _, id := range summary.CreatedIDs() {
		exclude[id] = struct{}{}
	}
	expired, skipped := e.policy().Evaluate(snapshots, now, exclude)
	summary.Skipped = append(summary.Skipped, skipped...)
	e.logger.Infof(ctx, "%d of %d tagged snapshot(s) are older than %d days",
		len(expired), len(snapshots), e.cfg.RetentionDays)

	type deleteResult struct {
		deleted bool
		skipped *domain.SkippedItem
		failure *domain.Failure
	}
	results := make([]deleteResult, len(expired))
	var g errgroup.Group
	g.SetLimit(e.cfg.Concurrency)
	for i, snap := range expired {
		g.Go(func() error {
			log := e.logger.WithFields(map[string]any{"snapshot_id": snap.ID})
			if e.cfg.DryRun {
				log.Infof(ctx, "Dry run: would delete snapshot %s", snap.ID)
				results[i] = deleteResult{deleted: true}
				return nil
			}
			err := e.platform.DeleteSnapshot(ctx, snap.ID)
			switch {
			case err == nil:
				log.Infof(ctx, "Deleted expired snapshot %s", snap.ID)
				results[i] = deleteResult{deleted: true}
			case errors.Is(err, errors.CodeResourceInUse):
				log.Warnf(ctx, "Snapshot %s is in use, keeping it", snap.ID)
				results[i] = deleteResult{skipped: &domain.SkippedItem{Kind: domain.KindSnapshot, ID: snap.ID, Reason: "in use"}}
			case errors.Is(err, errors.CodeResourceNotFound):
				log.Warnf(ctx, "Snapshot %s no longer exists", snap.ID)
				results[i] = deleteResult{skipped: &domain.SkippedItem{Kind: domain.KindSnapshot, ID: snap.ID, Reason: "already deleted"}}
			default:
				wrapped := errors.WithCause(err, errors.CodeRetentionError, "failed to delete snapshot")
				log.Errorf(ctx, wrapped, "Snapshot deletion failed")
				results[i] = deleteResult{failure: &domain.Failure{
					Operation: domain.OpDeleteSnapshot, Kind: domain.KindSnapshot, ID: snap.ID, Err: wrapped,
				}}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, res := range results {
		switch {
		case res.deleted:
			summary.Deleted = append(summary.Deleted, expired[i].ID)
		case res.skipped != nil:
			summary.Skipped = append(summary.Skipped, *res.skipped)
		case res.failure != nil:
			summary.Failures = append(summary.Failures, *res.failure)
		}
	}
}

func (e *BackupEngine) notify(ctx context.Context, n domain.Notification) error {
	if e.cfg.DryRun {
		e.logger.Infof(ctx, "Dry run: not sending notification %q:\n%s", n.Subject, n.Body)
		return nil
	}
	if err := e.notifier.Notify(ctx, n); err != nil {
		wrapped := errors.WithCause(err, errors.CodeNotificationError,
			fmt.Sprintf("failed to send notification via %s", e.notifier.Type()))
		e.logger.Errorf(ctx, wrapped, "Notification failed")
		return wrapped
	}
	return nil
}

func (e *BackupEngine) report(ctx context.Context, summary domain.BackupSummary) {
	if e.reporter == nil {
		return
	}
	if err := e.reporter.Report(ctx, summary); err != nil {
		e.logger.Warnf(ctx, "Failed to write report: %v", err)
	}
}

func selectorFilters(selector map[string]string) map[string]string {
	filters := make(map[string]string, len(selector))
	for k, v := range selector {
		filters[domain.TagPrefix+k] = v
	}
	return filters
}

// runError folds per-snapshot failures and a notification error into one
// error, or nil when the run was clean. A notification failure sets the
// top-level code, since nobody has been told about the run.
func runError(summary domain.BackupSummary, notifyErr error) error {
	if len(summary.Failures) == 0 {
		return notifyErr
	}
	var result *multierror.Error
	for _, f := range summary.Failures {
		result = multierror.Append(result, f)
	}
	msg := fmt.Sprintf("%d backup operation(s) failed", len(summary.Failures))
	if notifyErr != nil {
		result = multierror.Append(result, notifyErr)
		return errors.WithCause(result.ErrorOrNil(), errors.CodeNotificationError, msg+" and the notification was not sent")
	}
	return errors.WithCause(result.ErrorOrNil(), errors.CodePartialFailure, msg)
}
