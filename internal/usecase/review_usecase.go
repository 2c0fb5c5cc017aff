package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"fixitnow/internal/domain/activity"
	"fixitnow/internal/domain/job"
	"fixitnow/internal/domain/review"
	"fixitnow/internal/domain/technician"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type SubmitReviewInput struct {
	JobID   uuid.UUID
	Rating  int
	Comment string
	Images  []string
}

type ReviewUsecase interface {
	Submit(ctx context.Context, actor Actor, in SubmitReviewInput) (review.Review, error)
	List(ctx context.Context, techID uuid.UUID, page Page) (PageResult[review.Review], error)
	Average(ctx context.Context, techID uuid.UUID) (review.Summary, error)
}

type Reviews struct {
	reviews  review.Repository
	jobs     job.Repository
	techs    technician.Repository
	activity ActivityRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewReviewUsecase(reviews review.Repository, jobs job.Repository, techs technician.Repository, rec ActivityRecorder, log zerolog.Logger) *Reviews {
	return &Reviews{
		reviews:  reviews,
		jobs:     jobs,
		techs:    techs,
		activity: recorderOrNoop(rec),
		log:      log.With().Str("component", "reviews").Logger(),
		now:      time.Now,
	}
}

// Submit stores the review of a completed job and recomputes the
// technician's rating from all of their reviews.
func (u *Reviews) Submit(ctx context.Context, actor Actor, in SubmitReviewInput) (review.Review, error) {
	comment := strings.TrimSpace(in.Comment)
	if in.Rating < 1 || in.Rating > 5 || len(comment) > review.MaxCommentLength || len(in.Images) > review.MaxImages {
		return review.Review{}, ErrInvalidInput
	}

	j, err := u.jobs.GetByID(ctx, in.JobID)
	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			return review.Review{}, ErrInvalidReviewJob
		}
		return review.Review{}, ErrInternal
	}
	if j.UserID != actor.ID || j.Status != job.StatusCompleted {
		return review.Review{}, ErrInvalidReviewJob
	}

	images := in.Images
	if images == nil {
		images = []string{}
	}
	r := review.Review{
		ID:        uuid.New(),
		JobID:     j.ID,
		UserID:    actor.ID,
		TechID:    j.TechID,
		Rating:    in.Rating,
		Comment:   comment,
		Images:    images,
		CreatedAt: u.now().UTC(),
	}
	if err := u.reviews.Create(ctx, r); err != nil {
		if errors.Is(err, review.ErrAlreadyExists) {
			return review.Review{}, ErrReviewExists
		}
		u.log.Error().Err(err).Msg("create review")
		return review.Review{}, ErrInternal
	}

	sum, err := u.reviews.Summary(ctx, j.TechID)
	if err == nil {
		err = u.techs.UpdateRating(ctx, j.TechID, sum.AverageRating, sum.ReviewCount)
	}
	if err != nil {
		u.log.Error().Err(err).Str("tech_id", j.TechID.String()).Msg("refresh technician rating")
	}

	u.activity.Record(ctx, activity.ReviewSubmitted, actorPtr(actor.ID), activity.Details{
		"jobId":  j.ID.String(),
		"rating": in.Rating,
	}, actor.IP)
	return r, nil
}

func (u *Reviews) List(ctx context.Context, techID uuid.UUID, page Page) (PageResult[review.Review], error) {
	if techID == uuid.Nil {
		return PageResult[review.Review]{}, ErrInvalidInput
	}
	limit, offset, p := page.normalize(10, 50)

	items, total, err := u.reviews.ListByTech(ctx, techID, limit, offset)
	if err != nil {
		u.log.Error().Err(err).Msg("list reviews")
		return PageResult[review.Review]{}, ErrInternal
	}
	return PageResult[review.Review]{Items: items, Total: total, Page: p, Limit: limit}, nil
}

func (u *Reviews) Average(ctx context.Context, techID uuid.UUID) (review.Summary, error) {
	sum, err := u.reviews.Summary(ctx, techID)
	if err != nil {
		return review.Summary{}, ErrInternal
	}
	return sum, nil
}
