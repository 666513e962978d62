package repository

import (
	"context"

	"course-settlement/internal/domain/model"
)

type EnrollmentRepository interface {
	// InsertIfAbsent relies on the (user_id, course_id) unique constraint and
	// reports false when an enrollment already exists.
	InsertIfAbsent(ctx context.Context, tx Tx, e *model.Enrollment) (bool, error)
	FindByUserAndCourse(ctx context.Context, tx Tx, userID, courseID string) (*model.Enrollment, error)
	// SetActive flips is_active and reports whether it actually changed.
	SetActive(ctx context.Context, tx Tx, userID, courseID string, active bool) (bool, error)
}
