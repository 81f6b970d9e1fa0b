package validate

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ArnholdInstitute/dhis2ingestion/internal/registry"
)

// DefaultWorkers is the scan fan-out width: how many indicators are
// validated concurrently within one group.
const DefaultWorkers = 10

// GroupResult pairs a group's metadata with the validated records of its
// members, in the group's declared order.
type GroupResult struct {
	Group   registry.Group
	Records []*Record
}

// Scanner validates every indicator in a group with a bounded worker
// pool. The variable cache is scoped to one ScanGroup call and discarded
// afterward.
type Scanner struct {
	reg     Registry
	factors map[string]int64
	workers int
	logger  *slog.Logger
}

// NewScanner creates one. workers <= 0 selects DefaultWorkers.
func NewScanner(reg Registry, factors map[string]int64, workers int, logger *slog.Logger) *Scanner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{reg: reg, factors: factors, workers: workers, logger: logger}
}

// ScanGroup validates every member of one group. The returned records
// follow the group's declared member order regardless of worker timing.
// A group that cannot be resolved is an error; everything past that
// boundary surfaces as findings inside the records. Groups whose members
// are not indicators (e.g. data element groups) come back with no
// records.
func (s *Scanner) ScanGroup(ctx context.Context, groupID string) (*GroupResult, error) {
	group, err := s.reg.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	result := &GroupResult{Group: *group}
	if group.ElementType != "indicators" {
		s.logger.Info("skipping non-indicator group",
			"group", groupID, "elementType", group.ElementType)
		return result, nil
	}

	resolver := NewResolver(s.reg, group.ElementType, group.MemberIDs)
	validator := NewValidator(s.reg, resolver, s.factors, s.logger)

	records := make([]*Record, len(group.MemberIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, id := range group.MemberIDs {
		g.Go(func() error {
			records[i] = validator.Validate(gctx, id)
			return nil
		})
	}
	// Workers never return errors; Validate absorbs every failure.
	_ = g.Wait()

	for i, id := range group.MemberIDs {
		if records[i] == nil {
			records[i] = parseFailed(id)
		}
		records[i].GroupDescription = group.DisplayName
	}
	result.Records = records
	return result, nil
}
