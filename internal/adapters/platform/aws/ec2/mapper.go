package ec2

import (
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/olusolaa/smartvault/internal/core/domain"
	"github.com/olusolaa/smartvault/internal/errors"
)

func mapInstanceToDomain(instance types.Instance) (domain.Instance, error) {
	if instance.InstanceId == nil {
		return domain.Instance{}, errors.New(errors.CodeInternal, "received EC2 instance with nil InstanceId")
	}

	tags := tagsToMap(instance.Tags)
	out := domain.Instance{
		ID:        aws.ToString(instance.InstanceId),
		Name:      tags[domain.TagName],
		Tags:      tags,
		VolumeIDs: volumeIDs(instance),
	}
	if instance.State != nil {
		out.State = string(instance.State.Name)
	}
	return out, nil
}

// volumeIDs returns attached EBS volumes with the root device first and the
// rest in mapping order.
func volumeIDs(instance types.Instance) []string {
	rootDevice := aws.ToString(instance.RootDeviceName)
	var root string
	rest := make([]string, 0, len(instance.BlockDeviceMappings))

	for _, bdm := range instance.BlockDeviceMappings {
		if bdm.Ebs == nil || bdm.Ebs.VolumeId == nil {
			continue
		}
		id := aws.ToString(bdm.Ebs.VolumeId)
		if root == "" && rootDevice != "" && aws.ToString(bdm.DeviceName) == rootDevice {
			root = id
			continue
		}
		rest = append(rest, id)
	}

	if root == "" {
		return rest
	}
	return append([]string{root}, rest...)
}

func mapSnapshotToDomain(snapshot types.Snapshot) (domain.Snapshot, error) {
	if snapshot.SnapshotId == nil {
		return domain.Snapshot{}, errors.New(errors.CodeInternal, "received EBS snapshot with nil SnapshotId")
	}
	tags := tagsToMap(snapshot.Tags)
	return domain.Snapshot{
		ID:         aws.ToString(snapshot.SnapshotId),
		VolumeID:   aws.ToString(snapshot.VolumeId),
		InstanceID: tags[domain.TagSourceInstance],
		State:      string(snapshot.State),
		StartTime:  aws.ToTime(snapshot.StartTime),
		Tags:       tags,
	}, nil
}

func tagsToMap(tags []types.Tag) map[string]string {
	out := make(map[string]string, len(tags))
	for _, t := range tags {
		if t.Key == nil {
			continue
		}
		out[*t.Key] = aws.ToString(t.Value)
	}
	return out
}

// mapToTags is ordered by key so API calls are reproducible.
func mapToTags(tags map[string]string) []types.Tag {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(tags[k])})
	}
	return out
}
