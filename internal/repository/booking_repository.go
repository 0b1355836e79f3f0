package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/parking-slot-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table.  Rows are
// created exclusively through CreateTx so that booking creation and
// the slot's reserved transition always share one transaction.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, reference, user_id, slot_id, lot_id, start_time, end_time,
       duration_hours, total_cost_cents, vehicle_number, status, created_at`

// CreateTx inserts a booking within the provided transaction and
// populates b.ID from the generated key.  The caller commits or
// rolls back.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
    const q = `INSERT INTO bookings
        (reference, user_id, slot_id, lot_id, start_time, end_time, duration_hours, total_cost_cents, vehicle_number, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, b.Reference, b.UserID, b.SlotID, b.LotID,
        b.StartTime.UTC(), b.EndTime.UTC(), b.DurationHours, b.TotalCostCents,
        b.VehicleNumber, b.Status)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return nil
}

// CreateConfirmed inserts the booking and flips its slot to reserved
// in a single transaction, so no window exists where the booking row
// is durable but the slot still looks free.  The caller must already
// have consumed the slot's lock entry.
func (r *BookingRepo) CreateConfirmed(ctx context.Context, b *model.Booking) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := r.CreateTx(ctx, tx, b); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx,
        `UPDATE slots SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
        model.SlotReserved, b.SlotID); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

// ListByUser returns all bookings created by the given user, newest
// first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.Booking
    for rows.Next() {
        var b model.Booking
        if err := rows.Scan(&b.ID, &b.Reference, &b.UserID, &b.SlotID, &b.LotID,
            &b.StartTime, &b.EndTime, &b.DurationHours, &b.TotalCostCents,
            &b.VehicleNumber, &b.Status, &b.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    return out, rows.Err()
}

// GetByIDForUser fetches a booking by ID and enforces ownership.  It
// returns ErrNotFound when the row does not exist and ErrForbidden
// when it belongs to a different user.
func (r *BookingRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*model.Booking, error) {
    var b model.Booking
    err := r.db.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id).
        Scan(&b.ID, &b.Reference, &b.UserID, &b.SlotID, &b.LotID,
            &b.StartTime, &b.EndTime, &b.DurationHours, &b.TotalCostCents,
            &b.VehicleNumber, &b.Status, &b.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    if b.UserID != userID {
        return nil, ErrForbidden
    }
    return &b, nil
}

// CancelTx marks a booking cancelled within the provided transaction.
// Only pending and confirmed bookings may be cancelled; anything else
// returns ErrConflict.
func (r *BookingRepo) CancelTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    res, err := tx.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status IN (?, ?)`,
        model.BookingCancelled, id, model.BookingPending, model.BookingConfirmed)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConflict
    }
    return nil
}
