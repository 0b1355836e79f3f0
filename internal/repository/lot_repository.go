package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/parking-slot-reservation/internal/model"
)

// LotRepo encapsulates database operations for parking lots.
type LotRepo struct {
    db *sql.DB
}

// NewLotRepo constructs a LotRepo given a DB handle.
func NewLotRepo(db *sql.DB) *LotRepo { return &LotRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// spanning multiple repositories.
func (r *LotRepo) DB() *sql.DB { return r.db }

// List returns lots optionally filtered by city and by a search term
// matched against name and location.  Empty filters return all lots.
func (r *LotRepo) List(ctx context.Context, city, search string) ([]model.Lot, error) {
    q := `SELECT id, name, location, city, total_slots, price_per_hour_cents, lat, lng, created_at
          FROM lots WHERE 1=1`
    args := []interface{}{}
    if city != "" {
        q += ` AND city = ?`
        args = append(args, city)
    }
    if search != "" {
        q += ` AND (name LIKE ? OR location LIKE ?)`
        like := "%" + search + "%"
        args = append(args, like, like)
    }
    q += ` ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var lots []model.Lot
    for rows.Next() {
        var l model.Lot
        if err := rows.Scan(&l.ID, &l.Name, &l.Location, &l.City, &l.TotalSlots,
            &l.PricePerHourCents, &l.Lat, &l.Lng, &l.CreatedAt); err != nil {
            return nil, err
        }
        lots = append(lots, l)
    }
    return lots, rows.Err()
}

// GetByID fetches a single lot.  It returns ErrNotFound when no lot
// with that ID exists.
func (r *LotRepo) GetByID(ctx context.Context, id uint64) (*model.Lot, error) {
    const q = `SELECT id, name, location, city, total_slots, price_per_hour_cents, lat, lng, created_at
               FROM lots WHERE id = ?`
    var l model.Lot
    err := r.db.QueryRowContext(ctx, q, id).Scan(&l.ID, &l.Name, &l.Location, &l.City,
        &l.TotalSlots, &l.PricePerHourCents, &l.Lat, &l.Lng, &l.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, err
    }
    return &l, nil
}
