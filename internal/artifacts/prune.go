package artifacts

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sys/unix"

	"vidgen/internal/logging"
)

// freeSpaceFloor is the fraction of the filesystem that must stay free after
// pruning. Pruning keeps evicting while free space sits below this floor.
const freeSpaceFloor = 0.05

type statfsFunc func(path string) (total, free uint64, err error)

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}

// PruneReport summarizes one pruning pass.
type PruneReport struct {
	Evicted    int
	FreedBytes int64
	TotalBytes int64
}

// Prune evicts artifacts oldest-first until the payload total fits the size
// budget and the filesystem keeps a minimum free fraction. A zero budget
// applies only the free-space floor.
func (s *Store) Prune(ctx context.Context) (PruneReport, error) {
	return s.prune(ctx, realStatfs)
}

func (s *Store) prune(ctx context.Context, statfs statfsFunc) (PruneReport, error) {
	artifacts, err := s.List(ctx)
	if err != nil {
		return PruneReport{}, err
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].CreatedAt.Before(artifacts[j].CreatedAt)
	})

	var total int64
	for _, artifact := range artifacts {
		total += artifact.SizeBytes
	}

	report := PruneReport{TotalBytes: total}
	for _, artifact := range artifacts {
		over := s.maxBytes > 0 && report.TotalBytes > s.maxBytes
		starved, statErr := belowFreeFloor(s.root, statfs)
		if statErr != nil {
			return report, fmt.Errorf("artifact prune: %w", statErr)
		}
		if !over && !starved {
			break
		}
		if err := s.Delete(ctx, artifact.Phase, artifact.Fingerprint); err != nil {
			return report, err
		}
		report.Evicted++
		report.FreedBytes += artifact.SizeBytes
		report.TotalBytes -= artifact.SizeBytes
		s.logger.Info("artifact evicted",
			logging.String(logging.FieldPhase, artifact.Phase),
			logging.String(logging.FieldFingerprint, artifact.Fingerprint),
			logging.Int64("size_bytes", artifact.SizeBytes))
	}
	return report, nil
}

func belowFreeFloor(path string, statfs statfsFunc) (bool, error) {
	total, free, err := statfs(path)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	return float64(free)/float64(total) < freeSpaceFloor, nil
}
