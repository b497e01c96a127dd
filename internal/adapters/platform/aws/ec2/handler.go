package ec2

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	awserrors "github.com/olusolaa/smartvault/internal/adapters/platform/aws/errors"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/limiter"
	"github.com/olusolaa/smartvault/internal/adapters/platform/aws/shared"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/core/ports"
	apperrors "github.com/olusolaa/smartvault/internal/errors"
)

const (
	resourceInstance = "EC2 instance"
	resourceSnapshot = "EBS snapshot"
	resourceVolume   = "EBS volume"
)

// SnapshotHandler drives instance discovery and the EBS snapshot lifecycle.
type SnapshotHandler struct {
	ec2Client    EC2ClientInterface
	stsClient    shared.STSClientInterface
	limiter      shared.RateLimiter
	errorHandler shared.ErrorHandler
	logger       ports.Logger
	region       string

	instancesPaginator func(client EC2ClientInterface, input *ec2.DescribeInstancesInput) EC2InstancesPaginator
	snapshotsPaginator func(client EC2ClientInterface, input *ec2.DescribeSnapshotsInput) EC2SnapshotsPaginator

	mu        sync.Mutex
	accountID string
}

type Option func(*SnapshotHandler)

func WithEC2Client(client EC2ClientInterface) Option {
	return func(h *SnapshotHandler) { h.ec2Client = client }
}

func WithSTSClient(client shared.STSClientInterface) Option {
	return func(h *SnapshotHandler) { h.stsClient = client }
}

func WithRateLimiter(l shared.RateLimiter) Option {
	return func(h *SnapshotHandler) { h.limiter = l }
}

func WithErrorHandler(eh shared.ErrorHandler) Option {
	return func(h *SnapshotHandler) { h.errorHandler = eh }
}

func NewHandler(cfg aws.Config, logger ports.Logger, opts ...Option) *SnapshotHandler {
	h := &SnapshotHandler{
		logger: logger,
		region: cfg.Region,
		instancesPaginator: func(client EC2ClientInterface, input *ec2.DescribeInstancesInput) EC2InstancesPaginator {
			return ec2.NewDescribeInstancesPaginator(client, input)
		},
		snapshotsPaginator: func(client EC2ClientInterface, input *ec2.DescribeSnapshotsInput) EC2SnapshotsPaginator {
			return ec2.NewDescribeSnapshotsPaginator(client, input)
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.ec2Client == nil {
		h.ec2Client = ec2.NewFromConfig(cfg)
	}
	if h.stsClient == nil {
		h.stsClient = sts.NewFromConfig(cfg)
	}
	if h.limiter == nil {
		h.limiter = limiter.New(limiter.DefaultRateLimitRPS, logger)
	}
	if h.errorHandler == nil {
		h.errorHandler = &awserrors.DefaultErrorHandler{}
	}
	return h
}

func (h *SnapshotHandler) wait(ctx context.Context) error {
	if err := h.limiter.Wait(ctx, h.logger); err != nil {
		return h.errorHandler.Handle("Limiter", "Wait", err, ctx)
	}
	return nil
}

func (h *SnapshotHandler) getAccountID(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.accountID != "" {
		return h.accountID, nil
	}

	if err := h.wait(ctx); err != nil {
		return "", err
	}
	output, err := h.stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", h.errorHandler.Handle("STS", "GetCallerIdentity", err, ctx)
	}
	if output.Account == nil {
		return "", apperrors.New(apperrors.CodePlatformAPIError, "AWS caller identity response did not contain Account ID")
	}
	h.accountID = *output.Account
	return h.accountID, nil
}

func (h *SnapshotHandler) Identity(ctx context.Context) (domain.AccountIdentity, error) {
	accountID, err := h.getAccountID(ctx)
	if err != nil {
		return domain.AccountIdentity{Region: h.region}, err
	}
	return domain.AccountIdentity{AccountID: accountID, Region: h.region}, nil
}

func (h *SnapshotHandler) ListInstances(ctx context.Context, filters map[string]string) ([]domain.Instance, error) {
	input := &ec2.DescribeInstancesInput{Filters: BuildInstanceFilters(filters)}
	paginator := h.instancesPaginator(h.ec2Client, input)

	var instances []domain.Instance
	pageNum := 0
	for paginator.HasMorePages() {
		if err := h.wait(ctx); err != nil {
			return nil, err
		}
		pageNum++
		h.logger.Debugf(ctx, "Fetching EC2 instances page %d", pageNum)
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, h.errorHandler.Handle(resourceInstance, fmt.Sprintf("page %d", pageNum), err, ctx)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				mapped, mapErr := mapInstanceToDomain(instance)
				if mapErr != nil {
					h.logger.Errorf(ctx, mapErr, "Failed to map EC2 instance, skipping")
					continue
				}
				instances = append(instances, mapped)
			}
		}
	}
	h.logger.Debugf(ctx, "Finished paginating EC2 instances, found %d total", len(instances))
	return instances, nil
}

func (h *SnapshotHandler) CreateSnapshot(ctx context.Context, req domain.SnapshotRequest) (domain.Snapshot, error) {
	if req.VolumeID == "" {
		return domain.Snapshot{}, apperrors.New(apperrors.CodeSnapshotError,
			fmt.Sprintf("no volume given for instance %s", req.InstanceID))
	}
	if err := h.wait(ctx); err != nil {
		return domain.Snapshot{}, err
	}

	output, err := h.ec2Client.CreateSnapshot(ctx, &ec2.CreateSnapshotInput{
		VolumeId:    aws.String(req.VolumeID),
		Description: aws.String(req.Description),
	})
	if err != nil {
		return domain.Snapshot{}, h.errorHandler.Handle(resourceVolume, req.VolumeID, err, ctx)
	}
	if output.SnapshotId == nil {
		return domain.Snapshot{}, apperrors.New(apperrors.CodePlatformAPIError,
			fmt.Sprintf("CreateSnapshot for volume %s returned no snapshot id", req.VolumeID))
	}

	return domain.Snapshot{
		ID:         aws.ToString(output.SnapshotId),
		VolumeID:   req.VolumeID,
		InstanceID: req.InstanceID,
		State:      string(output.State),
		StartTime:  aws.ToTime(output.StartTime),
	}, nil
}

func (h *SnapshotHandler) TagSnapshot(ctx context.Context, snapshotID string, tags map[string]string) error {
	if len(tags) == 0 {
		return nil
	}
	if err := h.wait(ctx); err != nil {
		return err
	}
	_, err := h.ec2Client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{snapshotID},
		Tags:      mapToTags(tags),
	})
	if err != nil {
		return h.errorHandler.Handle(resourceSnapshot, snapshotID, err, ctx)
	}
	return nil
}

func (h *SnapshotHandler) ListSnapshots(ctx context.Context, tagKey string) ([]domain.Snapshot, error) {
	input := &ec2.DescribeSnapshotsInput{
		OwnerIds: []string{"self"},
		Filters:  BuildSnapshotFilters(tagKey),
	}
	paginator := h.snapshotsPaginator(h.ec2Client, input)

	var snapshots []domain.Snapshot
	pageNum := 0
	for paginator.HasMorePages() {
		if err := h.wait(ctx); err != nil {
			return nil, err
		}
		pageNum++
		h.logger.Debugf(ctx, "Fetching EBS snapshots page %d", pageNum)
		output, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, h.errorHandler.Handle(resourceSnapshot, fmt.Sprintf("page %d", pageNum), err, ctx)
		}
		for _, snap := range output.Snapshots {
			mapped, mapErr := mapSnapshotToDomain(snap)
			if mapErr != nil {
				h.logger.Errorf(ctx, mapErr, "Failed to map EBS snapshot, skipping")
				continue
			}
			snapshots = append(snapshots, mapped)
		}
	}
	h.logger.Debugf(ctx, "Found %d snapshots tagged with %s", len(snapshots), tagKey)
	return snapshots, nil
}

func (h *SnapshotHandler) DeleteSnapshot(ctx context.Context, snapshotID string) error {
	if err := h.wait(ctx); err != nil {
		return err
	}
	_, err := h.ec2Client.DeleteSnapshot(ctx, &ec2.DeleteSnapshotInput{SnapshotId: aws.String(snapshotID)})
	if err != nil {
		return h.errorHandler.Handle(resourceSnapshot, snapshotID, err, ctx)
	}
	return nil
}
