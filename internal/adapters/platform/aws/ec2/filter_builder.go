package ec2

import (
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/olusolaa/smartvault/internal/core/domain"
)

const (
	awsTagFilterPrefix  = "tag:"
	instanceStateFilter = "instance-state-name"
)

var ec2FilterNameMap = map[string]string{
	domain.FilterInstanceID:    "instance-id",
	domain.FilterInstanceState: instanceStateFilter,
}

var multiValueFilters = map[string]struct{}{
	"instance-id":       {},
	instanceStateFilter: {},
}

// Terminated instances have no volumes left to snapshot.
var defaultInstanceStates = []string{"pending", "running", "stopping", "stopped"}

// snapshotStatuses are the states eligible for deletion.
var snapshotStatuses = []string{"completed", "error"}

// BuildInstanceFilters converts generic filters into EC2 DescribeInstances
// filters. Keys prefixed with "tag:" select by tag; unknown keys are ignored.
// Output is ordered by filter name.
func BuildInstanceFilters(genericFilters map[string]string) []types.Filter {
	keys := make([]string, 0, len(genericFilters))
	for k := range genericFilters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ec2Filters := make([]types.Filter, 0, len(keys)+1)
	stateProvided := false

	for _, key := range keys {
		value := genericFilters[key]
		var filterName string
		filterValues := []string{value}

		if strings.HasPrefix(key, domain.TagPrefix) {
			tagName := strings.TrimPrefix(key, domain.TagPrefix)
			if tagName == "" {
				continue
			}
			filterName = awsTagFilterPrefix + tagName
		} else if mappedName, ok := ec2FilterNameMap[key]; ok {
			filterName = mappedName
			if _, supportsMulti := multiValueFilters[filterName]; supportsMulti {
				filterValues = SplitFilterValue(value)
			}
		} else {
			continue
		}

		if filterName == instanceStateFilter {
			stateProvided = true
		}
		ec2Filters = append(ec2Filters, types.Filter{
			Name:   aws.String(filterName),
			Values: filterValues,
		})
	}

	if !stateProvided {
		ec2Filters = append(ec2Filters, types.Filter{
			Name:   aws.String(instanceStateFilter),
			Values: append([]string(nil), defaultInstanceStates...),
		})
	}

	return ec2Filters
}

// BuildSnapshotFilters selects snapshots that carry tagKey and can be deleted.
func BuildSnapshotFilters(tagKey string) []types.Filter {
	return []types.Filter{
		{Name: aws.String("tag-key"), Values: []string{tagKey}},
		{Name: aws.String("status"), Values: append([]string(nil), snapshotStatuses...)},
	}
}

func SplitFilterValue(value string) []string {
	if !strings.Contains(value, ",") {
		return []string{value}
	}
	parts := strings.Split(value, ",")
	trimmedParts := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			trimmedParts = append(trimmedParts, trimmed)
		}
	}
	return trimmedParts
}
