package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
)

var _ repository.CourseCatalog = (*courseRepo)(nil)

// courseRepo reads the catalog owned by course management.
type courseRepo struct{ pool *pgxpool.Pool }

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, price, instructor_id FROM courses WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c := &model.Course{}
	if err := row.Scan(&c.ID, &c.Title, &c.Price, &c.InstructorID); err != nil {
		err = mapScanErr(err)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

// Upsert is used by the seed command only.
func (r *courseRepo) Upsert(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, price, instructor_id) VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET title=$2, price=$3, instructor_id=$4;`
	if _, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.Price, c.InstructorID); err != nil {
		return mapExecErr(err)
	}
	return nil
}
