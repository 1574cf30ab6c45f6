package domain

import "time"

// QuestionKind tags the normalized question variant.
type QuestionKind string

const (
	// KindChoice is a question with a fixed set of options, exactly one correct.
	KindChoice QuestionKind = "choice"
	// KindInformational has no options and never contributes to the score.
	KindInformational QuestionKind = "info"
)

// Unanswered is recorded in breakdowns for questions that timed out.
const Unanswered = "unanswered"

// QuizConfig is the display block of a quiz document.
type QuizConfig struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	Icon          string `json:"icon,omitempty"`
	Color         string `json:"color,omitempty"`
	QuestionCount int    `json:"questionCount"`
	SpoilerMode   bool   `json:"spoilerMode,omitempty"`
	FreeMode      bool   `json:"freeMode,omitempty"`
}

// Question is the normalized form of both question shapes found in quiz files.
// For choice questions Correct holds the content of the right option, so shuffling
// Options never changes which answer is correct.
type Question struct {
	Prompt      string       `json:"question"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Explanation string       `json:"explanation,omitempty"`
	Kind        QuestionKind `json:"kind"`
	Options     []string     `json:"options,omitempty"`
	Correct     string       `json:"correct,omitempty"`
}

// Scorable reports whether the question counts toward the percentage denominator.
func (q Question) Scorable() bool {
	return q.Kind == KindChoice && len(q.Options) > 0
}

// IsCorrect compares by content, not position.
func (q Question) IsCorrect(value string) bool {
	return q.Scorable() && value == q.Correct
}

// Quiz is a loaded, normalized quiz. Immutable once loaded.
type Quiz struct {
	ID        string     `json:"id"`
	Config    QuizConfig `json:"config"`
	Questions []Question `json:"questions"`
}

// Descriptor flattens the quiz into a catalog entry.
func (q Quiz) Descriptor() QuizDescriptor {
	return QuizDescriptor{ID: q.ID, QuizConfig: q.Config}
}

// QuizDescriptor is the display-ready catalog entry: id plus config fields.
type QuizDescriptor struct {
	ID string `json:"id"`
	QuizConfig
}

// Index enumerates the known quizzes of a catalog.
type Index struct {
	Quizzes     []string  `json:"quizzes"`
	Categories  []string  `json:"categories"`
	Count       int       `json:"count,omitempty"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
	GeneratedBy string    `json:"generated_by,omitempty"`
}

// Trophy is a cosmetic reward unlocked with a code.
type Trophy struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	URL         string `json:"url,omitempty"`
}

// BreakdownEntry describes one question of a finished session by content only.
type BreakdownEntry struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	Answered      bool   `json:"answered"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
	Scorable      bool   `json:"scorable"`
	Explanation   string `json:"explanation,omitempty"`
}

// ResultRecord is appended to the player's history at the end of a session.
type ResultRecord struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quizId"`
	QuizTitle      string    `json:"quizTitle"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     int       `json:"percentage"`
	TimeSpent      float64   `json:"timeSpent"`
	Date           time.Time `json:"date"`
	Difficulty     string    `json:"difficulty,omitempty"`
	Category       string    `json:"category,omitempty"`
	PointsEarned   int       `json:"pointsEarned"`
	TotalPoints    int       `json:"totalPoints"`
}

// PlayerStats aggregates the result history.
type PlayerStats struct {
	TotalQuizzes   int     `json:"totalQuizzes"`
	AverageScore   int     `json:"averageScore"`
	BestScore      int     `json:"bestScore"`
	WorstScore     int     `json:"worstScore"`
	TotalTimeSpent float64 `json:"totalTimeSpent"`
}

// SecretCode is a one-time unlock code for a trophy.
type SecretCode struct {
	TrophyID    string     `json:"trophy_id"`
	Used        bool       `json:"used"`
	DateCreated time.Time  `json:"dateCreated"`
	DateUsed    *time.Time `json:"dateUsed"`
}

// PointsAward is one entry of the point history.
type PointsAward struct {
	Points          int       `json:"points"`
	QuizName        string    `json:"quizName"`
	ScorePercentage int       `json:"scorePercentage"`
	Date            time.Time `json:"date"`
}

// Rewards is the persisted reward ledger document.
type Rewards struct {
	TotalPoints      int                   `json:"totalPoints"`
	UnlockedTrophies []string              `json:"unlockedTrophies"`
	SecretCodes      map[string]SecretCode `json:"secretCodes"`
	PointsHistory    []PointsAward         `json:"pointsHistory"`
}

// NewRewards returns an empty ledger document.
func NewRewards() Rewards {
	return Rewards{
		UnlockedTrophies: []string{},
		SecretCodes:      make(map[string]SecretCode),
		PointsHistory:    []PointsAward{},
	}
}
