/*
service.go - Report Assembler

PURPOSE:
  Glues the engine together for one user: resolves the user's schedule,
  loads the points of a period, groups them by day, and computes worked,
  expected, remaining and extra hours per day and for the whole period.

FLOW:
  UserStore.GetUser -> ScheduleResolver.Resolve -> PointStore.LoadRange
    -> GroupByDay -> WorkedIntervals/DayBalance per day -> PeriodBalance

ERRORS:
  - ErrUserNotFound: unknown user
  - UnknownScheduleError: user has no schedule, or an unregistered one.
    Reported before any balance is computed; there is no default schedule.
  - InvalidRangeError: start after end, or longer than MaxPeriodDays
  No partial reports are returned.

SEE ALSO:
  - generic/balance.go: PeriodBalance, DayBalance
  - api/handlers.go: JSON, PDF and XLSX endpoints
*/
package timesheet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/generic"
)

// DefaultMaxPeriodDays bounds report and listing periods to a leap year.
const DefaultMaxPeriodDays = 366

type Service struct {
	Points    generic.PointStore
	Users     UserStore
	Resolver  *generic.ScheduleResolver
	Registrar *generic.Registrar
	Calendar  generic.Calendar
	Logger    *zap.Logger
	Now       func() time.Time

	// MaxPeriodDays limits ListPoints and Report; zero disables the limit.
	MaxPeriodDays int
}

func NewService(points generic.TxPointStore, users UserStore, resolver *generic.ScheduleResolver,
	registrar *generic.Registrar, cal generic.Calendar, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		Points:    points,
		Users:     users,
		Resolver:  resolver,
		Registrar: registrar,
		Calendar:  cal,
		Logger:    logger.Named("timesheet"),
		Now:       time.Now,

		MaxPeriodDays: DefaultMaxPeriodDays,
	}
}

// =============================================================================
// USERS
// =============================================================================

type CreateUserInput struct {
	FirstName    string
	LastName     string
	Email        string
	ScheduleCode generic.ScheduleCode
	ShiftAnchor  *generic.Date
}

// CreateUser rejects unregistered schedule codes. An empty code is allowed;
// reports for such a user fail until a schedule is set.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	if in.ScheduleCode != "" && !s.Resolver.Known(in.ScheduleCode) {
		return nil, &generic.UnknownScheduleError{Code: in.ScheduleCode}
	}
	u := User{
		ID:           generic.UserID(uuid.NewString()),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		ScheduleCode: in.ScheduleCode,
		ShiftAnchor:  in.ShiftAnchor,
		CreatedAt:    s.Now().UTC(),
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.Info("user created", zap.String("user_id", string(u.ID)), zap.String("schedule", string(u.ScheduleCode)))
	return &u, nil
}

func (s *Service) GetUser(ctx context.Context, id generic.UserID) (*User, error) {
	return s.Users.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.Users.ListUsers(ctx)
}

func (s *Service) UpdateSchedule(ctx context.Context, id generic.UserID, code generic.ScheduleCode, anchor *generic.Date) (*User, error) {
	if !s.Resolver.Known(code) {
		return nil, &generic.UnknownScheduleError{Code: code}
	}
	if err := s.Users.UpdateSchedule(ctx, id, code, anchor); err != nil {
		return nil, err
	}
	return s.Users.GetUser(ctx, id)
}

// =============================================================================
// REGISTRATION
// =============================================================================

// RegisterPoint registers the user's next point. The user must exist.
func (s *Service) RegisterPoint(ctx context.Context, in generic.RegisterInput) (generic.ClockEvent, error) {
	if _, err := s.Users.GetUser(ctx, in.UserID); err != nil {
		return generic.ClockEvent{}, err
	}
	e, err := s.Registrar.Register(ctx, in)
	if err != nil {
		s.Logger.Warn("point registration failed",
			zap.String("user_id", string(in.UserID)),
			zap.String("kind", generic.ErrorKind(err)),
			zap.Error(err))
		return generic.ClockEvent{}, err
	}
	s.Logger.Info("point registered",
		zap.String("user_id", string(e.UserID)),
		zap.String("point_id", string(e.ID)),
		zap.String("kind", string(e.Kind)),
		zap.String("source", string(e.Source)),
		zap.Time("at", e.At))
	return e, nil
}

// ListPoints returns the user's points in period, ascending.
func (s *Service) ListPoints(ctx context.Context, userID generic.UserID, period generic.Period) ([]generic.ClockEvent, error) {
	if err := period.ValidateLength(s.MaxPeriodDays); err != nil {
		return nil, err
	}
	if _, err := s.Users.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	from, to := period.Bounds(s.Calendar.Location)
	return s.Points.LoadRange(ctx, userID, from, to)
}

// =============================================================================
// REPORTS
// =============================================================================

// Report assembles the worked-hours report of userID over period.
func (s *Service) Report(ctx context.Context, userID generic.UserID, period generic.Period) (*Report, error) {
	if err := period.ValidateLength(s.MaxPeriodDays); err != nil {
		return nil, err
	}
	user, err := s.Users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	schedule, err := s.Resolver.Resolve(user.ScheduleCode, user.ShiftAnchor)
	if err != nil {
		return nil, err
	}

	from, to := period.Bounds(s.Calendar.Location)
	points, err := s.Points.LoadRange(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load points: %w", err)
	}

	buckets, err := generic.GroupByDay(points, period, s.Calendar)
	if err != nil {
		return nil, err
	}

	days := make([]DayReport, len(buckets))
	for i, b := range buckets {
		days[i] = DayReport{
			Date:      b.Date,
			Weekday:   b.Weekday,
			Events:    b.Events,
			Intervals: generic.WorkedIntervals(b),
			Balance:   generic.DayBalance(schedule, b),
		}
	}

	report := &Report{
		User:        *user,
		Period:      period,
		Schedule:    schedule.Code(),
		Days:        days,
		Points:      points,
		Balance:     generic.PeriodBalance(schedule, buckets),
		GeneratedAt: s.Now(),
	}

	s.Logger.Debug("report assembled",
		zap.String("user_id", string(userID)),
		zap.Stringer("period", period),
		zap.Int("points", len(points)),
		zap.Duration("worked", report.Balance.Worked),
		zap.Duration("expected", report.Balance.Expected))
	return report, nil
}

// DailySummary is the report for today in the calendar's timezone.
func (s *Service) DailySummary(ctx context.Context, userID generic.UserID) (*Report, error) {
	today := s.Calendar.Today(s.Now())
	return s.Report(ctx, userID, generic.SingleDay(today))
}
