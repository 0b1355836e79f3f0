package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/parking-slot-reservation/internal/model"
)

// SlotRepo encapsulates database operations for parking slots.  The
// status column it maintains is a display mirror of the lock store
// (see internal/lockstore); all writes that touch locked/available
// therefore go through conditional updates so a stale writer can
// never clobber a newer state.  The single exception is the reserved
// transition performed by the booking finalizer, which is final.
type SlotRepo struct {
    db *sql.DB
}

// NewSlotRepo constructs a SlotRepo given a DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions
// spanning multiple repositories.
func (r *SlotRepo) DB() *sql.DB { return r.db }

const slotColumns = `id, lot_id, slot_number, floor, slot_type, status, updated_at`

func scanSlot(row interface{ Scan(...interface{}) error }) (*model.Slot, error) {
    var s model.Slot
    err := row.Scan(&s.ID, &s.LotID, &s.SlotNumber, &s.Floor, &s.SlotType, &s.Status, &s.UpdatedAt)
    if err != nil {
        return nil, err
    }
    return &s, nil
}

// GetByID fetches a single slot.  It returns ErrNotFound when no
// slot with that ID exists.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.Slot, error) {
    s, err := scanSlot(r.db.QueryRowContext(ctx,
        `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    return s, err
}

// ListByLot returns all slots of a lot ordered by floor and slot
// number, matching the display order of the lot view.
func (r *SlotRepo) ListByLot(ctx context.Context, lotID uint64) ([]model.Slot, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+slotColumns+` FROM slots WHERE lot_id = ? ORDER BY floor, slot_number`, lotID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var slots []model.Slot
    for rows.Next() {
        s, err := scanSlot(rows)
        if err != nil {
            return nil, err
        }
        slots = append(slots, *s)
    }
    return slots, rows.Err()
}

// SetStatusIf updates a slot's status to the target value only when
// its current status is one of the expected values.  It reports
// whether a row was updated.  This is the guard that keeps mirror
// writes from downgrading a reserved slot: callers name the states
// they are allowed to overwrite instead of writing unconditionally.
func (r *SlotRepo) SetStatusIf(ctx context.Context, slotID uint64, to string, from ...string) (bool, error) {
    if len(from) == 0 {
        res, err := r.db.ExecContext(ctx,
            `UPDATE slots SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, to, slotID)
        if err != nil {
            return false, err
        }
        n, err := res.RowsAffected()
        return n > 0, err
    }
    q := `UPDATE slots SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ? AND status IN (`
    args := []interface{}{to, slotID}
    for i, f := range from {
        if i > 0 {
            q += ","
        }
        q += "?"
        args = append(args, f)
    }
    q += `)`
    res, err := r.db.ExecContext(ctx, q, args...)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

// SetStatusIfTx is SetStatusIf executed within an existing
// transaction.  The caller commits or rolls back.
func (r *SlotRepo) SetStatusIfTx(ctx context.Context, tx *sql.Tx, slotID uint64, to string, from ...string) (bool, error) {
    q := `UPDATE slots SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`
    args := []interface{}{to, slotID}
    if len(from) > 0 {
        q += ` AND status IN (`
        for i, f := range from {
            if i > 0 {
                q += ","
            }
            q += "?"
            args = append(args, f)
        }
        q += `)`
    }
    res, err := tx.ExecContext(ctx, q, args...)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    return n > 0, err
}

// CountByStatus returns the number of slots in a lot currently in
// the given status.  Used for lot availability summaries.
func (r *SlotRepo) CountByStatus(ctx context.Context, lotID uint64, status string) (uint32, error) {
    var n uint32
    err := r.db.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM slots WHERE lot_id = ? AND status = ?`, lotID, status).Scan(&n)
    return n, err
}
