package courses

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type repo struct {
	db *sql.DB
}

func NewRepo(db *sql.DB) Repo {
	return &repo{db: db}
}

//
// courses
//

const courseColumns = `id, name, timezone, foreup_course_id, image_asset_id, created_at`

func scanCourse(row interface{ Scan(...any) error }) (*Course, error) {
	var (
		c      Course
		foreUp sql.NullString
		image  sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Timezone, &foreUp, &image, &c.CreatedAt); err != nil {
		return nil, err
	}
	if foreUp.Valid {
		c.ForeUpCourseID = &foreUp.String
	}
	if image.Valid {
		c.ImageAssetID = &image.String
	}
	return &c, nil
}

func (r *repo) CreateCourse(ctx context.Context, c *Course) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO courses (name, timezone, foreup_course_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		c.Name, c.Timezone, c.ForeUpCourseID,
	).Scan(&c.ID, &c.CreatedAt)
}

func (r *repo) UpdateCourse(ctx context.Context, c *Course) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE courses
		 SET name=$1, timezone=$2, foreup_course_id=$3
		 WHERE id=$4`,
		c.Name, c.Timezone, c.ForeUpCourseID, c.ID,
	)
	return err
}

func (r *repo) DeleteCourse(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id=$1`, id)
	return err
}

func (r *repo) GetCourse(ctx context.Context, id int64) (*Course, error) {
	c, err := scanCourse(r.db.QueryRowContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (r *repo) ListCourses(ctx context.Context) ([]*Course, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM courses ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repo) SetCourseImage(ctx context.Context, id int64, assetID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE courses SET image_asset_id=$1 WHERE id=$2`,
		assetID, id,
	)
	return err
}

//
// tee times
//

const teeTimeColumns = `id, course_id, starts_at, price, currency, capacity, booked, provider_ref`

func scanTeeTime(row interface{ Scan(...any) error }) (*TeeTime, error) {
	var (
		t   TeeTime
		ref sql.NullString
	)
	if err := row.Scan(&t.ID, &t.CourseID, &t.StartsAt, &t.Price, &t.Currency, &t.Capacity, &t.Booked, &ref); err != nil {
		return nil, err
	}
	if ref.Valid {
		t.ProviderRef = &ref.String
	}
	return &t, nil
}

func (r *repo) CreateTeeTime(ctx context.Context, t *TeeTime) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO tee_times (course_id, starts_at, price, currency, capacity, booked, provider_ref)
		 VALUES ($1, $2, $3, $4, $5, 0, $6)
		 RETURNING id`,
		t.CourseID, t.StartsAt, t.Price, t.Currency, t.Capacity, t.ProviderRef,
	).Scan(&t.ID)
}

func (r *repo) DeleteTeeTime(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tee_times WHERE id=$1`, id)
	return err
}

func (r *repo) GetTeeTime(ctx context.Context, id int64) (*TeeTime, error) {
	t, err := scanTeeTime(r.db.QueryRowContext(ctx,
		`SELECT `+teeTimeColumns+` FROM tee_times WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *repo) ListTeeTimes(ctx context.Context, courseID int64, from, to time.Time) ([]*TeeTime, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+teeTimeColumns+`
		 FROM tee_times
		 WHERE course_id=$1 AND starts_at >= $2 AND starts_at < $3
		 ORDER BY starts_at ASC`,
		courseID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*TeeTime
	for rows.Next() {
		t, err := scanTeeTime(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

//
// availability
//

// Reserve takes spots only if they fit; false means the tee time is full.
func (r *repo) Reserve(ctx context.Context, id int64, spots int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tee_times
		 SET booked = booked + $2
		 WHERE id=$1 AND booked + $2 <= capacity`,
		id, spots,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *repo) Release(ctx context.Context, id int64, spots int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tee_times
		 SET booked = GREATEST(booked - $2, 0)
		 WHERE id=$1`,
		id, spots,
	)
	return err
}

func (r *repo) AdjustByProviderRef(ctx context.Context, ref string, delta int) (*TeeTime, error) {
	t, err := scanTeeTime(r.db.QueryRowContext(ctx,
		`UPDATE tee_times
		 SET booked = LEAST(capacity, GREATEST(booked + $2, 0))
		 WHERE provider_ref=$1
		 RETURNING `+teeTimeColumns,
		ref, delta,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}
