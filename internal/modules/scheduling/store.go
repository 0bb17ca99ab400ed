// README: Batch store backed by PostgreSQL; loads requests/drivers and persists assignments.
package scheduling

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridesched/internal/types"
)

// Batch is one scheduling run's input as stored.
type Batch struct {
	ID       types.ID
	Requests []RideRequest
	Drivers  []Driver
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) batchExists(ctx context.Context, id types.ID) error {
	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM batches WHERE id = $1)`, string(id)).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *Store) LoadBatch(ctx context.Context, id types.ID) (Batch, error) {
	if err := s.batchExists(ctx, id); err != nil {
		return Batch{}, err
	}

	b := Batch{ID: id}
	var err error
	if b.Requests, err = s.loadRequests(ctx, id); err != nil {
		return Batch{}, err
	}
	if b.Drivers, err = s.loadDrivers(ctx, id); err != nil {
		return Batch{}, err
	}
	return b, nil
}

func (s *Store) loadRequests(ctx context.Context, batchID types.ID) ([]RideRequest, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id, start_location, end_location, start_time, end_time,
               is_scheduled, rider_id, date_requested
        FROM ride_requests
        WHERE batch_id = $1
        ORDER BY position`, string(batchID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RideRequest
	for rows.Next() {
		var r RideRequest
		var dateRequested sql.NullString
		if err := rows.Scan(
			&r.ID, &r.StartLocation, &r.EndLocation, &r.StartTime, &r.EndTime,
			&r.IsScheduled, &r.RiderID, &dateRequested,
		); err != nil {
			return nil, err
		}
		r.DateRequested = dateRequested.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) loadDrivers(ctx context.Context, batchID types.ID) ([]Driver, error) {
	rows, err := s.db.Query(ctx, `
        SELECT d.id, d.name, d.shift_start, d.shift_end, d.vehicle_id, d.phone, d.email
        FROM batch_drivers bd
        JOIN drivers d ON d.id = bd.driver_id
        WHERE bd.batch_id = $1
        ORDER BY bd.position`, string(batchID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Driver
	index := make(map[types.ID]int)
	for rows.Next() {
		var d Driver
		var vehicleID, phone, email sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.ShiftStart, &d.ShiftEnd, &vehicleID, &phone, &email); err != nil {
			return nil, err
		}
		d.VehicleID = types.ID(vehicleID.String)
		d.Phone = phone.String
		d.Email = email.String
		index[d.ID] = len(out)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]string, len(out))
	for i, d := range out {
		ids[i] = string(d.ID)
	}
	brows, err := s.db.Query(ctx, `
        SELECT driver_id, weekday, start_time, end_time
        FROM driver_breaks
        WHERE driver_id = ANY($1)
        ORDER BY driver_id, weekday, start_time`, ids,
	)
	if err != nil {
		return nil, err
	}
	defer brows.Close()
	for brows.Next() {
		var driverID types.ID
		var br Break
		var weekday int
		if err := brows.Scan(&driverID, &weekday, &br.Start, &br.End); err != nil {
			return nil, err
		}
		br.Weekday = time.Weekday(weekday)
		if i, ok := index[driverID]; ok {
			out[i].Breaks = append(out[i].Breaks, br)
		}
	}
	return out, brows.Err()
}

// SaveAssignments replaces the stored assignments of a batch in one transaction.
func (s *Store) SaveAssignments(ctx context.Context, batchID, runID types.ID, assignments []Assignment) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM ride_assignments WHERE batch_id = $1`, string(batchID)); err != nil {
		return err
	}

	now := time.Now()
	batch := &pgx.Batch{}
	for _, a := range assignments {
		batch.Queue(`
            INSERT INTO ride_assignments (batch_id, request_id, driver_id, run_id, assigned_at)
            VALUES ($1, $2, $3, $4, $5)`,
			string(batchID), string(a.ID), string(a.DriverID), string(runID), now,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListAssignments returns the stored assignments of a batch in request order.
// A known batch without a solved run yields an empty list.
func (s *Store) ListAssignments(ctx context.Context, batchID types.ID) ([]Assignment, error) {
	if err := s.batchExists(ctx, batchID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
        SELECT r.id, r.start_location, r.end_location, r.start_time, r.end_time,
               r.is_scheduled, r.rider_id, r.date_requested, a.driver_id
        FROM ride_assignments a
        JOIN ride_requests r ON r.batch_id = a.batch_id AND r.id = a.request_id
        WHERE a.batch_id = $1
        ORDER BY r.position`, string(batchID),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		var dateRequested sql.NullString
		if err := rows.Scan(
			&a.ID, &a.StartLocation, &a.EndLocation, &a.StartTime, &a.EndTime,
			&a.IsScheduled, &a.RiderID, &dateRequested, &a.DriverID,
		); err != nil {
			return nil, err
		}
		a.DateRequested = dateRequested.String
		out = append(out, a)
	}
	return out, rows.Err()
}
