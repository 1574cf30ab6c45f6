package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz is returned when a quiz document lacks a questions array.
	ErrInvalidQuiz = errors.New("invalid quiz document: questions missing")
	// ErrKeyNotFound is returned by stores for absent keys.
	ErrKeyNotFound = errors.New("key not found")
	// ErrNoActiveSession is returned when a question operation runs without a started quiz.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrAlreadyAnswered blocks further input on a question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidOption indicates a submitted option index is out of range.
	ErrInvalidOption = errors.New("option not found")
	// ErrInsufficientPoints is returned when redeeming with fewer than the required points.
	ErrInsufficientPoints = errors.New("not enough points")
	// ErrInvalidCode indicates an unknown secret code.
	ErrInvalidCode = errors.New("unknown code")
	// ErrCodeUsed indicates a secret code was already redeemed.
	ErrCodeUsed = errors.New("code already used")
	// ErrAllTrophiesUnlocked is returned when no trophy is left to buy.
	ErrAllTrophiesUnlocked = errors.New("all trophies already unlocked")
	// ErrEmptyName rejects blank player names.
	ErrEmptyName = errors.New("player name cannot be empty")
	// ErrInvalidTransition is returned for actions not allowed on the current screen.
	ErrInvalidTransition = errors.New("action not allowed on current screen")
	// ErrRunnerStopped is returned when sending to a closed player loop.
	ErrRunnerStopped = errors.New("player session closed")
)
