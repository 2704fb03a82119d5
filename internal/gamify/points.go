// Package gamify credits students with points and badge tiers for correct
// practice answers.
package gamify

import (
	"context"
	"log/slog"
	"math"

	"github.com/pavelanni/smartstudy/internal/model"
)

const (
	PointsPerAnswer      = 1
	PointsPerShortAnswer = 2
	PointsPerTier        = 10
	MaxBadgeTier         = 5
)

// ProfileStore reads and writes student profiles.
type ProfileStore interface {
	GetProfile(studentID string) (*model.Profile, error)
	SaveProfile(p model.Profile) error
}

// Updater awards points to student profiles.
type Updater struct {
	profiles ProfileStore
}

// NewUpdater creates an Updater backed by profiles.
func NewUpdater(profiles ProfileStore) *Updater {
	return &Updater{profiles: profiles}
}

// AwardPoint adds points for a newly correct answer and recomputes the badge
// tier. Short answers are worth more. It is best effort: a missing profile
// is skipped and store errors are logged, never returned.
func (u *Updater) AwardPoint(ctx context.Context, studentID string, isShortAnswer bool) {
	p, err := u.profiles.GetProfile(studentID)
	if err != nil {
		slog.WarnContext(ctx, "load profile for award", "student_id", studentID, "error", err)
		return
	}
	if p == nil {
		slog.DebugContext(ctx, "no profile, award skipped", "student_id", studentID)
		return
	}

	inc := PointsPerAnswer
	if isShortAnswer {
		inc = PointsPerShortAnswer
	}
	p.Points = AddPoints(p.Points, inc)
	p.BadgeTier = BadgeTier(p.Points)

	if err := u.profiles.SaveProfile(*p); err != nil {
		slog.WarnContext(ctx, "save profile after award", "student_id", studentID, "error", err)
		return
	}
	slog.InfoContext(ctx, "points awarded", "student_id", studentID, "points", p.Points, "badge_tier", p.BadgeTier)
}

// AddPoints returns total+inc, or total unchanged if the sum would overflow.
func AddPoints(total, inc int) int {
	if inc > 0 && total > math.MaxInt-inc {
		return total
	}
	return total + inc
}

// BadgeTier is one tier per PointsPerTier points, capped at MaxBadgeTier.
func BadgeTier(points int) int {
	tier := points / PointsPerTier
	if tier < 0 {
		return 0
	}
	if tier > MaxBadgeTier {
		return MaxBadgeTier
	}
	return tier
}
