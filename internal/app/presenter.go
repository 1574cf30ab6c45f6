package app

import (
	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

// Per-question budget in seconds.
const (
	DefaultTimeLimit = 10
	MinTimeLimit     = 5
	MaxTimeLimit     = 120
)

// Settings are the selection-screen toggles.
type Settings struct {
	TimeLimit    int  `json:"timeLimit"`
	FreeMode     bool `json:"freeMode"`
	SpoilerMode  bool `json:"spoilerMode"`
	ShowResponse bool `json:"showResponse"`
}

func (s Settings) normalized() Settings {
	switch {
	case s.TimeLimit <= 0:
		s.TimeLimit = DefaultTimeLimit
	case s.TimeLimit < MinTimeLimit:
		s.TimeLimit = MinTimeLimit
	case s.TimeLimit > MaxTimeLimit:
		s.TimeLimit = MaxTimeLimit
	}
	return s
}

// QuestionView is what the UI needs to render the current question.
type QuestionView struct {
	QuizTitle     string              `json:"quizTitle"`
	Index         int                 `json:"index"`
	Total         int                 `json:"total"`
	Prompt        string              `json:"question"`
	ImageURL      string              `json:"imageUrl,omitempty"`
	ImageObscured bool                `json:"imageObscured"`
	Kind          domain.QuestionKind `json:"kind"`
	Options       []string            `json:"options,omitempty"`
	TimeLimit     int                 `json:"timeLimit"`
	Score         int                 `json:"score"`
}

// Outcome classifies the end of a question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeInfo      Outcome = "info"
)

// Feedback is shown after an answer or a timeout, before advancing.
type Feedback struct {
	Index       int     `json:"index"`
	Outcome     Outcome `json:"outcome"`
	Selected    string  `json:"selected,omitempty"`
	Reveal      string  `json:"reveal,omitempty"`
	RevealImage bool    `json:"revealImage"`
	Explanation string  `json:"explanation,omitempty"`
	Score       int     `json:"score"`
	DwellMillis int64   `json:"dwellMs,omitempty"`
}

// Presenter drives one question at a time: present, count down, score, advance.
// Time is supplied from outside through Tick.
type Presenter struct {
	session   *Session
	settings  Settings
	remaining int
	active    bool
	answered  bool
	log       *zap.Logger
}

func NewPresenter(session *Session, settings Settings, log *zap.Logger) *Presenter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Presenter{session: session, settings: settings.normalized(), log: log}
}

func (p *Presenter) Settings() Settings { return p.settings }

func (p *Presenter) SetSettings(s Settings) { p.settings = s.normalized() }

// Remaining returns the seconds left on the current question.
func (p *Presenter) Remaining() int { return p.remaining }

// Answered reports whether the current question is awaiting advance.
func (p *Presenter) Answered() bool { return p.active && p.answered }

// Present shows the current question and restarts the countdown. It returns false
// when the session is complete.
func (p *Presenter) Present() (QuestionView, bool) {
	q, ok := p.session.Current()
	if !ok {
		p.active = false
		return QuestionView{}, false
	}
	if q.Kind == domain.KindChoice && len(q.Options) == 0 {
		p.log.Warn("choice question without options, presenting as informational", zap.Int("index", p.session.Index()))
	}

	p.session.BeginQuestion()
	p.remaining = p.settings.TimeLimit
	p.active = true
	p.answered = false

	quiz, _ := p.session.Quiz()
	kind := domain.KindInformational
	if q.Scorable() {
		kind = domain.KindChoice
	}
	return QuestionView{
		QuizTitle:     quiz.Config.Title,
		Index:         p.session.Index(),
		Total:         p.session.Len(),
		Prompt:        q.Prompt,
		ImageURL:      q.ImageURL,
		ImageObscured: p.spoilerMode() && q.ImageURL != "",
		Kind:          kind,
		Options:       append([]string(nil), q.Options...),
		TimeLimit:     p.settings.TimeLimit,
		Score:         p.session.Score(),
	}, true
}

// Tick advances the countdown by one second. When it reaches zero on an unanswered
// question the question times out and feedback is returned.
func (p *Presenter) Tick() (int, *Feedback) {
	if !p.active || p.answered {
		return p.remaining, nil
	}
	if p.remaining > 0 {
		p.remaining--
	}
	if p.remaining > 0 {
		return p.remaining, nil
	}
	q, _ := p.session.Current()
	fb := p.resolve(q, "", false)
	return 0, &fb
}

// Submit answers the current question with the option at the given display index.
// For informational questions it acknowledges the question without scoring.
func (p *Presenter) Submit(option int) (Feedback, error) {
	if !p.active {
		return Feedback{}, domain.ErrNoActiveSession
	}
	if p.answered {
		return Feedback{}, domain.ErrAlreadyAnswered
	}
	q, _ := p.session.Current()
	if !q.Scorable() {
		return p.resolve(q, "", true), nil
	}
	if option < 0 || option >= len(q.Options) {
		return Feedback{}, domain.ErrInvalidOption
	}
	return p.resolve(q, q.Options[option], true), nil
}

// Next advances the session and presents the following question. It returns false
// once the session is complete.
func (p *Presenter) Next() (QuestionView, bool) {
	p.session.Advance()
	p.active = false
	return p.Present()
}

func (p *Presenter) resolve(q domain.Question, value string, answered bool) Feedback {
	index := p.session.Index()
	p.answered = true
	p.session.StopTimer()
	p.session.RecordAnswer(index, Answer{Value: value, Answered: answered, TimedOut: !answered})
	recorded := p.session.Answers()[index]

	fb := Feedback{
		Index:       index,
		Selected:    value,
		RevealImage: p.spoilerMode() && q.ImageURL != "",
		Explanation: q.Explanation,
		Score:       p.session.Score(),
	}
	show := p.settings.ShowResponse
	switch {
	case !q.Scorable():
		fb.Outcome = OutcomeInfo
		if show || p.freeMode() {
			fb.Reveal = q.Correct
		}
	case recorded.Correct:
		fb.Outcome = OutcomeCorrect
		if show {
			fb.Reveal = q.Correct
		}
	case !answered:
		fb.Outcome = OutcomeTimeout
		if show || p.freeMode() {
			fb.Reveal = q.Correct
		}
	default:
		fb.Outcome = OutcomeIncorrect
		if show {
			fb.Reveal = q.Correct
		}
	}
	return fb
}

func (p *Presenter) freeMode() bool {
	quiz, _ := p.session.Quiz()
	return p.settings.FreeMode || quiz.Config.FreeMode
}

func (p *Presenter) spoilerMode() bool {
	quiz, _ := p.session.Quiz()
	return p.settings.SpoilerMode || quiz.Config.SpoilerMode
}
