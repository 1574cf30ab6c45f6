package app

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

// Percentage is round(score/scorable*100), or 0 when nothing is scorable.
func Percentage(score, scorable int) int {
	if scorable <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(scorable) * 100))
}

// Summary is the computed outcome of a finished session.
type Summary struct {
	QuizID     string                  `json:"quizId"`
	QuizTitle  string                  `json:"quizTitle"`
	Score      int                     `json:"score"`
	Scorable   int                     `json:"scorable"`
	Percentage int                     `json:"percentage"`
	Elapsed    time.Duration           `json:"-"`
	Breakdown  []domain.BreakdownEntry `json:"breakdown"`
}

// Summarize builds the summary of a session by content, so it does not depend on shuffle order.
func Summarize(session *Session) Summary {
	quiz, _ := session.Quiz()
	questions := session.Questions()
	answers := session.Answers()

	sum := Summary{
		QuizID:    quiz.ID,
		QuizTitle: quiz.Config.Title,
		Score:     session.Score(),
		Elapsed:   session.Elapsed(),
		Breakdown: make([]domain.BreakdownEntry, 0, len(questions)),
	}
	for i, q := range questions {
		a := answers[i]
		entry := domain.BreakdownEntry{
			Question:      q.Prompt,
			UserAnswer:    domain.Unanswered,
			Answered:      a.Answered,
			Scorable:      q.Scorable(),
			CorrectAnswer: q.Correct,
			Explanation:   q.Explanation,
		}
		if q.Scorable() {
			sum.Scorable++
			entry.Correct = a.Correct
		}
		if a.Answered && a.Value != "" {
			entry.UserAnswer = a.Value
		}
		sum.Breakdown = append(sum.Breakdown, entry)
	}
	sum.Percentage = Percentage(sum.Score, sum.Scorable)
	return sum
}

// ResultsView is what the results screen renders.
type ResultsView struct {
	Summary
	TimeSpent float64             `json:"timeSpent"`
	Award     Award               `json:"award"`
	Record    domain.ResultRecord `json:"record"`
}

// Results persists finished sessions into the profile and the reward ledger.
type Results struct {
	profile *Profile
	ledger  *Ledger
	now     func() time.Time
	log     *zap.Logger
}

func NewResults(profile *Profile, ledger *Ledger, now func() time.Time, log *zap.Logger) *Results {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Results{profile: profile, ledger: ledger, now: now, log: log}
}

// Finish summarizes the session, credits points and appends the result record.
// The view is always returned; a persistence error is returned alongside it.
func (r *Results) Finish(ctx context.Context, session *Session) (ResultsView, error) {
	sum := Summarize(session)
	quiz, _ := session.Quiz()
	view := ResultsView{Summary: sum, TimeSpent: sum.Elapsed.Seconds()}

	var errs []error
	award, err := r.ledger.AddPoints(ctx, sum.Percentage, sum.QuizTitle)
	if err != nil {
		r.log.Warn("points not saved", zap.String("quiz", sum.QuizID), zap.Error(err))
		errs = append(errs, err)
		award = Award{PointsEarned: PointsForPercentage(sum.Percentage)}
	}
	view.Award = award

	record := domain.ResultRecord{
		QuizID:         sum.QuizID,
		QuizTitle:      sum.QuizTitle,
		Score:          sum.Score,
		TotalQuestions: sum.Scorable,
		Percentage:     sum.Percentage,
		TimeSpent:      view.TimeSpent,
		Date:           r.now(),
		Difficulty:     quiz.Config.Difficulty,
		Category:       quiz.Config.Category,
		PointsEarned:   award.PointsEarned,
		TotalPoints:    award.TotalPoints,
	}
	record, err = r.profile.SaveResult(ctx, record)
	if err != nil {
		r.log.Warn("result not saved", zap.String("quiz", sum.QuizID), zap.Error(err))
		errs = append(errs, err)
	}
	view.Record = record

	r.log.Info("quiz finished",
		zap.String("quiz", sum.QuizID),
		zap.Int("score", sum.Score),
		zap.Int("scorable", sum.Scorable),
		zap.Int("percentage", sum.Percentage),
		zap.Int("points", award.PointsEarned),
	)
	return view, errors.Join(errs...)
}
