package ingest

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type DirStats struct {
	Scanned  uint32
	Matched  uint32
	Paired   uint32
	Unpaired uint32
	Failed   uint32
}

// ScanPairs walks root and returns every complete pair, sorted by key. Hidden files
// and directories are skipped when skipHidden is set.
func ScanPairs(root string, skipHidden bool) ([]Pair, DirStats, error) {
	var stats DirStats
	if strings.TrimSpace(root) == "" {
		return nil, stats, fmt.Errorf("scan: root is required")
	}

	pairer := NewPairer()
	found := map[string]Pair{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, _, ok := ParsePairName(path); !ok {
			return nil
		}
		stats.Matched++
		if pr, complete := pairer.Observe(path); complete {
			found[pr.Key] = pr
		}
		return nil
	})
	if err != nil {
		return nil, stats, fmt.Errorf("walk: %w", err)
	}

	pairs := make([]Pair, 0, len(found))
	for _, pr := range found {
		pairs = append(pairs, pr)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	stats.Paired = uint32(len(pairs))
	stats.Unpaired = uint32(len(pairer.Pending()))
	return pairs, stats, nil
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
