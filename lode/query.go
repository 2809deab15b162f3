package lode

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// ErrNoReportFound is returned when no session report matches.
var ErrNoReportFound = errors.New("no session report found")

// reportFilter selects session reports by partition value. Empty fields
// match anything.
type reportFilter struct {
	sessionID string
	source    string
}

// snapshot reports whether any file in snap could hold a matching record.
// Manifest paths are only a coarse pre-filter; record decides.
func (f reportFilter) snapshot(snap *lode.DatasetSnapshot) bool {
	paths := make([]string, len(snap.Manifest.Files))
	for i, file := range snap.Manifest.Files {
		paths[i] = file.Path
	}
	return anyPartition(paths, "session_id", f.sessionID) && anyPartition(paths, "source", f.source)
}

func (f reportFilter) record(item any) (map[string]any, bool) {
	rec, ok := item.(map[string]any)
	if !ok || rec["record_kind"] != RecordKindSessionReport {
		return nil, false
	}
	if s, _ := rec["session_id"].(string); f.sessionID != "" && s != f.sessionID {
		return nil, false
	}
	if s, _ := rec["source"].(string); f.source != "" && s != f.source {
		return nil, false
	}
	return rec, true
}

// QueryLatestReport returns the newest session report record in ds.
// sessionID and source filter when non-empty.
func QueryLatestReport(ctx context.Context, ds lode.Dataset, sessionID, source string) (map[string]any, error) {
	filter := reportFilter{sessionID: sessionID, source: source}

	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, wrapStorage(OpRead, "snapshots", err)
	}

	// Snapshots are listed oldest first.
	for _, snap := range slices.Backward(snapshots) {
		if !filter.snapshot(snap) {
			continue
		}
		items, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, wrapStorage(OpRead, fmt.Sprintf("snapshot/%s", snap.ID), err)
		}
		for _, item := range items {
			if rec, ok := filter.record(item); ok {
				return rec, nil
			}
		}
	}

	return nil, ErrNoReportFound
}

// anyPartition reports whether some path carries the exact key=value
// segment, so session_id=a never matches session_id=ab. An empty value
// matches every path set.
func anyPartition(paths []string, key, value string) bool {
	if value == "" {
		return true
	}
	segment := key + "=" + value
	for _, p := range paths {
		if slices.Contains(strings.Split(p, "/"), segment) {
			return true
		}
	}
	return false
}
