package courses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Vovarama1992/teetimes/internal/ports"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type service struct {
	repo     Repo
	assets   ports.AssetRepo
	validate *validator.Validate
	now      func() time.Time
	log      *zap.SugaredLogger
}

func NewService(repo Repo, assets ports.AssetRepo, log *zap.SugaredLogger) Service {
	return &service{
		repo:     repo,
		assets:   assets,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

func (s *service) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// ==================================================
// COURSES
// ==================================================

func (s *service) CreateCourse(ctx context.Context, c *Course) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.check(c); err != nil {
		return err
	}
	if err := s.repo.CreateCourse(ctx, c); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	s.log.Infow("[courses] created", "id", c.ID, "name", c.Name)
	return nil
}

func (s *service) UpdateCourse(ctx context.Context, c *Course) error {
	c.Name = strings.TrimSpace(c.Name)
	if err := s.check(c); err != nil {
		return err
	}
	if _, err := s.GetCourse(ctx, c.ID); err != nil {
		return err
	}
	if err := s.repo.UpdateCourse(ctx, c); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

func (s *service) DeleteCourse(ctx context.Context, id int64) error {
	return s.repo.DeleteCourse(ctx, id)
}

func (s *service) GetCourse(ctx context.Context, id int64) (*Course, error) {
	c, err := s.repo.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load course: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("course %d: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *service) ListCourses(ctx context.Context) ([]*Course, error) {
	return s.repo.ListCourses(ctx)
}

// AttachImage links a finished upload to the course.
func (s *service) AttachImage(ctx context.Context, courseID int64, assetID string) (*Course, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	asset, err := s.assets.Get(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("load asset: %w", err)
	}
	if asset == nil {
		return nil, fmt.Errorf("asset %s: %w", assetID, ErrNotFound)
	}
	if err := s.repo.SetCourseImage(ctx, courseID, asset.ID); err != nil {
		return nil, fmt.Errorf("set course image: %w", err)
	}
	c.ImageAssetID = &asset.ID
	return c, nil
}

// ==================================================
// TEE TIMES
// ==================================================

func (s *service) CreateTeeTime(ctx context.Context, t *TeeTime) error {
	t.Currency = strings.ToUpper(t.Currency)
	if err := s.check(t); err != nil {
		return err
	}
	if _, err := s.GetCourse(ctx, t.CourseID); err != nil {
		return err
	}
	t.Booked = 0
	if err := s.repo.CreateTeeTime(ctx, t); err != nil {
		return fmt.Errorf("create tee time: %w", err)
	}
	return nil
}

func (s *service) DeleteTeeTime(ctx context.Context, id int64) error {
	return s.repo.DeleteTeeTime(ctx, id)
}

func (s *service) GetTeeTime(ctx context.Context, id int64) (*TeeTime, error) {
	t, err := s.repo.GetTeeTime(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tee time: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("tee time %d: %w", id, ErrNotFound)
	}
	return t, nil
}

// ListTeeTimes returns the tee times on date, midnight to midnight in the
// course's own timezone.
func (s *service) ListTeeTimes(ctx context.Context, courseID int64, date Date) ([]*TeeTime, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("course %d timezone %q: %w", courseID, c.Timezone, err)
	}
	if date.IsZero() {
		y, m, d := s.now().In(loc).Date()
		date = Date{Year: y, Month: m, Day: d}
	}
	from := time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, loc)
	return s.repo.ListTeeTimes(ctx, courseID, from, from.AddDate(0, 0, 1))
}

// ==================================================
// AVAILABILITY
// ==================================================

func (s *service) Reserve(ctx context.Context, teeTimeID int64, players int) error {
	if players < 1 {
		return fmt.Errorf("%w: players must be positive", ErrInvalidInput)
	}
	ok, err := s.repo.Reserve(ctx, teeTimeID, players)
	if err != nil {
		return fmt.Errorf("reserve: %w", err)
	}
	if !ok {
		return ErrNoCapacity
	}
	return nil
}

func (s *service) Release(ctx context.Context, teeTimeID int64, players int) error {
	if err := s.repo.Release(ctx, teeTimeID, players); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}

// ApplyProviderEvent mirrors a booking or cancellation made on the
// course's own system. Booked stays within [0, capacity].
func (s *service) ApplyProviderEvent(ctx context.Context, providerRef string, delta int) error {
	if providerRef == "" {
		return fmt.Errorf("%w: empty provider ref", ErrInvalidInput)
	}
	if delta == 0 {
		return nil
	}
	t, err := s.repo.AdjustByProviderRef(ctx, providerRef, delta)
	if err != nil {
		return fmt.Errorf("adjust tee time: %w", err)
	}
	if t == nil {
		s.log.Warnw("[courses] provider event for unknown tee time", "ref", providerRef, "delta", delta)
		return nil
	}
	s.log.Infow("[courses] availability synced", "tee_time", t.ID, "booked", t.Booked, "capacity", t.Capacity)
	return nil
}
