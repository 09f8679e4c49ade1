package syncer

import (
	"github.com/dmitrijs2005/newssync/models"
)

// resolveConflict reconciles an incoming remote record against the existing
// local record with the same id (nil when none exists, meaning no conflict). It
// returns the record to write, or nil when the remote update must be
// discarded.
//
// Resolution never fails: an unknown strategy degrades to ServerWins.
func resolveConflict(local *models.NewsRecord, remote models.NewsRecord, strategy models.ConflictStrategy) *models.NewsRecord {
	if local == nil {
		return &remote
	}

	switch strategy {
	case models.ClientWins:
		return nil

	case models.Merge:
		// Remote content wins, local user-interaction state survives.
		merged := remote
		merged.IsBookmarked = local.IsBookmarked
		return &merged

	case models.ServerWins:
		return &remote

	default:
		return &remote
	}
}
