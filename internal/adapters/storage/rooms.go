package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
)

// Rooms implements core.RoomDirectory.
type Rooms struct{ d *DB }

func (d *DB) Rooms() *Rooms { return &Rooms{d: d} }

const roomColumns = `id, code, owner_id, tv_password_hash, unique_visitors, created_at`

func scanRoom(row interface{ Scan(...any) error }) (*core.RoomRecord, error) {
	var (
		rec     core.RoomRecord
		code    string
		created int64
	)
	if err := row.Scan(&rec.ID, &code, &rec.OwnerID, &rec.TVPasswordHash, &rec.UniqueVisitors, &created); err != nil {
		return nil, err
	}
	rec.Code = domain.RoomCode(code)
	rec.CreatedAt = fromMillis(created)
	return &rec, nil
}

func (r *Rooms) FindRoom(ctx context.Context, code domain.RoomCode) (*core.RoomRecord, error) {
	row := r.d.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE code = ?`, string(domain.NormalizeCode(string(code))))
	rec, err := scanRoom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	return rec, nil
}

func (r *Rooms) CreateRoom(ctx context.Context, rec *core.RoomRecord) error {
	_, err := r.d.db.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Code), rec.OwnerID, rec.TVPasswordHash, rec.UniqueVisitors, toMillis(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (r *Rooms) RoomsByOwner(ctx context.Context, ownerID string) ([]core.RoomRecord, error) {
	rows, err := r.d.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	out := []core.RoomRecord{}
	for rows.Next() {
		rec, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (r *Rooms) IncrementVisitors(ctx context.Context, code domain.RoomCode) error {
	res, err := r.d.db.ExecContext(ctx,
		`UPDATE rooms SET unique_visitors = unique_visitors + 1 WHERE code = ?`, string(code))
	if err != nil {
		return fmt.Errorf("increment visitors: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}
