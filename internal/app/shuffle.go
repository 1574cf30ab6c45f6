package app

import (
	"math/rand"

	"quiz-player/internal/domain"
)

// Shuffle returns a uniformly shuffled copy of items (Fisher-Yates).
func Shuffle[T any](rnd *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// ShuffleQuestions reorders the questions and, independently, the options of every
// choice question. Correct answers are stored by content so they survive the shuffle.
func ShuffleQuestions(rnd *rand.Rand, questions []domain.Question) []domain.Question {
	out := Shuffle(rnd, questions)
	for i := range out {
		if out[i].Kind == domain.KindChoice {
			out[i].Options = Shuffle(rnd, out[i].Options)
		}
	}
	return out
}
