package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

// InsertIfAbsent relies on the (user_id, course_id) unique key, so two
// concurrent approvals create a single row.
func (r *enrollmentRepo) InsertIfAbsent(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	const q = `
INSERT INTO enrollments (id, user_id, course_id, is_active, progress, enrolled_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (user_id, course_id) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.CourseID, e.IsActive, e.Progress, e.EnrolledAt)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *enrollmentRepo) FindByUserAndCourse(ctx context.Context, tx repository.Tx, userID, courseID string) (*model.Enrollment, error) {
	const q = `
SELECT id, user_id, course_id, is_active, progress, enrolled_at, completed_at
  FROM enrollments WHERE user_id=$1 AND course_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return nil, err
	}
	e := &model.Enrollment{}
	if err := row.Scan(&e.ID, &e.UserID, &e.CourseID, &e.IsActive, &e.Progress, &e.EnrolledAt, &e.CompletedAt); err != nil {
		return nil, mapScanErr(err)
	}
	return e, nil
}

// SetActive flips only the flag; progress and completion stay as they are.
func (r *enrollmentRepo) SetActive(ctx context.Context, tx repository.Tx, userID, courseID string, active bool) (bool, error) {
	const q = `UPDATE enrollments SET is_active=$3 WHERE user_id=$1 AND course_id=$2 AND is_active <> $3;`
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, courseID, active)
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}
