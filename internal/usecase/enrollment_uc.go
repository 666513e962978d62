package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"course-settlement/internal/domain"
	"course-settlement/internal/domain/model"
	"course-settlement/internal/domain/ports/repository"
	"course-settlement/internal/infra/metrics"
)

// Compile-time check
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// EnrollmentUseCase derives a learner's access from payment and subscription
// state. It only creates enrollments and toggles IsActive; progress is never touched.
type EnrollmentUseCase interface {
	OnPaymentApproved(ctx context.Context, tx repository.Tx, userID, courseID string) (model.EnrollmentChange, error)
	// OnPaymentFailed pauses only subscription-backed enrollments.
	OnPaymentFailed(ctx context.Context, tx repository.Tx, userID, courseID string, typ model.PaymentType) (model.EnrollmentChange, error)
	OnRefunded(ctx context.Context, tx repository.Tx, userID, courseID string) (model.EnrollmentChange, error)
}

type enrollmentUC struct {
	enrollments repository.EnrollmentRepository
	log         *zerolog.Logger
}

func NewEnrollmentUseCase(enrollments repository.EnrollmentRepository, logger *zerolog.Logger) *enrollmentUC {
	return &enrollmentUC{enrollments: enrollments, log: logger}
}

func (u *enrollmentUC) OnPaymentApproved(ctx context.Context, tx repository.Tx, userID, courseID string) (model.EnrollmentChange, error) {
	e := &model.Enrollment{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourseID:   courseID,
		IsActive:   true,
		Progress:   decimal.Zero,
		EnrolledAt: time.Now(),
	}
	created, err := u.enrollments.InsertIfAbsent(ctx, tx, e)
	if err != nil {
		return "", err
	}
	if created {
		return u.done(userID, courseID, model.EnrollmentCreated), nil
	}

	// Already enrolled: resume if paused.
	changed, err := u.enrollments.SetActive(ctx, tx, userID, courseID, true)
	if err != nil {
		return "", err
	}
	if changed {
		return u.done(userID, courseID, model.EnrollmentReactivated), nil
	}
	return u.done(userID, courseID, model.EnrollmentUnchanged), nil
}

func (u *enrollmentUC) OnPaymentFailed(ctx context.Context, tx repository.Tx, userID, courseID string, typ model.PaymentType) (model.EnrollmentChange, error) {
	if typ != model.PaymentTypeSubscription {
		return model.EnrollmentUnchanged, nil
	}
	return u.pause(ctx, tx, userID, courseID)
}

func (u *enrollmentUC) OnRefunded(ctx context.Context, tx repository.Tx, userID, courseID string) (model.EnrollmentChange, error) {
	return u.pause(ctx, tx, userID, courseID)
}

func (u *enrollmentUC) pause(ctx context.Context, tx repository.Tx, userID, courseID string) (model.EnrollmentChange, error) {
	changed, err := u.enrollments.SetActive(ctx, tx, userID, courseID, false)
	if err != nil {
		return "", err
	}
	if changed {
		return u.done(userID, courseID, model.EnrollmentPaused), nil
	}
	_, err = u.enrollments.FindByUserAndCourse(ctx, tx, userID, courseID)
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEnrollmentNotFound) {
		return u.done(userID, courseID, model.EnrollmentMissing), nil
	}
	if err != nil {
		return "", err
	}
	return u.done(userID, courseID, model.EnrollmentUnchanged), nil
}

func (u *enrollmentUC) done(userID, courseID string, change model.EnrollmentChange) model.EnrollmentChange {
	metrics.IncEnrollmentChange(string(change))
	if change != model.EnrollmentUnchanged {
		u.log.Info().Str("user_id", userID).Str("course_id", courseID).Str("change", string(change)).Msg("enrollment reconciled")
	}
	return change
}
