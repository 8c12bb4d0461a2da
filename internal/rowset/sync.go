package rowset

import (
	"context"
	"fmt"
	"log"

	"github.com/rzpsarthak13/rowcache/internal/core"
	"github.com/rzpsarthak13/rowcache/internal/messages"
)

// syncView exposes a row set to a SyncProvider.
type syncView struct {
	rs   *RowSet
	keys []int
}

func (v syncView) TableName() string         { return v.rs.TableName() }
func (v syncView) Columns() []core.Column    { return v.rs.Columns() }
func (v syncView) KeyColumns() []int         { return v.keys }
func (v syncView) Changes() []core.RowChange { return v.rs.Changes() }

// Changes returns every row flagged inserted, updated or deleted, in store
// order.
func (rs *RowSet) Changes() []core.RowChange {
	var changes []core.RowChange
	for i, row := range rs.data.rows.Rows() {
		if !row.Inserted() && !row.Updated() && !row.Deleted() {
			continue
		}
		changes = append(changes, core.RowChange{
			Position:       i + 1,
			Inserted:       row.Inserted(),
			Updated:        row.Updated(),
			Deleted:        row.Deleted(),
			Original:       row.OriginalValues(),
			Current:        row.CurrentValues(),
			ChangedColumns: row.ChangedColumns(),
		})
	}
	return changes
}

// AcceptChanges writes the pending changes through the sync provider. On
// success every row is committed as by SetOriginal. On a conflict
// (core.ErrSyncConflict) or a failure (core.ErrSyncFailure) the rows and
// their flags are left untouched. The cursor is restored in every case.
func (rs *RowSet) AcceptChanges(ctx context.Context) error {
	if rs.cur.onInsert {
		return rs.fail(core.ErrInvalidCursorPosition, messages.OnInsertRow)
	}
	if rs.provider == nil {
		return rs.fail(core.ErrNotReady, messages.NoProvider)
	}
	keys, err := rs.keyColumns()
	if err != nil {
		return err
	}
	if rs.syncTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rs.syncTimeout)
		defer cancel()
	}

	saved := rs.cur
	conflict, err := rs.provider.WriteData(ctx, syncView{rs: rs, keys: keys})
	rs.cur = saved

	if err != nil {
		log.Printf("[SYNC] ERROR: %s failed to write %s: %v", rs.provider.Name(), rs.TableName(), err)
		return fmt.Errorf("%w: %s: %w", core.ErrSyncFailure, rs.msgs.Text(messages.SyncFailed), err)
	}
	if conflict {
		log.Printf("[SYNC] Conflict writing %s through %s, changes kept", rs.TableName(), rs.provider.Name())
		return rs.fail(core.ErrSyncConflict, messages.SyncConflict)
	}

	rs.SetOriginal()
	log.Printf("[SYNC] Accepted changes for %s through %s", rs.TableName(), rs.provider.Name())
	return nil
}
