package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"weighttrend/internal/domain"
)

// AddObservation inserts a new observation.
func (d *DB) AddObservation(ctx context.Context, userID int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO observations(user_id, weight, minutes_since_meal, recorded_at) VALUES($1, $2, $3, $4) RETURNING id;",
		userID, weight, minutesSinceMeal, recordedAt.UTC(),
	).Scan(&id)
	return id, err
}

// UpdateObservation rewrites an observation and flags it edited.
func (d *DB) UpdateObservation(ctx context.Context, userID, id int64, weight float64, minutesSinceMeal int, recordedAt time.Time) (bool, error) {
	var (
		res sql.Result
		err error
	)
	if recordedAt.IsZero() {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE observations SET weight=$1, minutes_since_meal=$2, edited=TRUE WHERE id=$3 AND user_id=$4;",
			weight, minutesSinceMeal, id, userID,
		)
	} else {
		res, err = d.sql.ExecContext(ctx,
			"UPDATE observations SET weight=$1, minutes_since_meal=$2, recorded_at=$3, edited=TRUE WHERE id=$4 AND user_id=$5;",
			weight, minutesSinceMeal, recordedAt.UTC(), id, userID,
		)
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteObservation removes an observation by id.
func (d *DB) DeleteObservation(ctx context.Context, userID, id int64) (bool, error) {
	res, err := d.sql.ExecContext(ctx,
		"DELETE FROM observations WHERE id=$1 AND user_id=$2;", id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListObservations returns the user's full history ordered by recorded_at.
func (d *DB) ListObservations(ctx context.Context, userID int64) ([]domain.Observation, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, weight, minutes_since_meal, edited, recorded_at FROM observations WHERE user_id=$1 ORDER BY recorded_at ASC;",
		userID)
	if err != nil {
		return nil, err
	}
	return scanObservations(rows)
}

// ListObservationsRange returns the user's observations within [from, to],
// ordered by recorded_at. Zero bounds are open-ended.
func (d *DB) ListObservationsRange(ctx context.Context, userID int64, from, to time.Time) ([]domain.Observation, error) {
	if from.IsZero() && to.IsZero() {
		return d.ListObservations(ctx, userID)
	}
	if from.IsZero() {
		from = time.Unix(0, 0)
	}
	if to.IsZero() {
		to = time.Now().AddDate(100, 0, 0)
	}
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, user_id, weight, minutes_since_meal, edited, recorded_at FROM observations WHERE user_id=$1 AND recorded_at >= $2 AND recorded_at <= $3 ORDER BY recorded_at ASC;",
		userID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	return scanObservations(rows)
}

func scanObservations(rows *sql.Rows) ([]domain.Observation, error) {
	defer rows.Close()

	var out []domain.Observation
	for rows.Next() {
		var o domain.Observation
		if err := rows.Scan(&o.ID, &o.UserID, &o.Weight, &o.MinutesSinceMeal, &o.Edited, &o.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return out, nil
}
