package rowcache

import (
	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/snapshot"
	"github.com/rzpsarthak13/rowcache/internal/writeback"
)

// Errors returned by row sets and the client. Match them with errors.Is.
var (
	ErrInvalidCursorPosition = core.ErrInvalidCursorPosition
	ErrInvalidColumnIndex    = core.ErrInvalidColumnIndex
	ErrCapability            = core.ErrCapability
	ErrDataConversion        = core.ErrDataConversion
	ErrIncompleteInsertRow   = core.ErrIncompleteInsertRow
	ErrSyncConflict          = core.ErrSyncConflict
	ErrSyncFailure           = core.ErrSyncFailure
	ErrConfiguration         = core.ErrConfiguration
	ErrNotReady              = core.ErrNotReady
	ErrKeyNotFound           = core.ErrKeyNotFound

	// ErrStaleWrite is logged by the drainer when a queued UPDATE or DELETE
	// no longer matches a row.
	ErrStaleWrite = writeback.ErrStaleWrite

	// ErrMalformedSnapshot is returned by ReadSnapshot.
	ErrMalformedSnapshot = snapshot.ErrMalformed
)
