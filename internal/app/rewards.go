package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"quiz-player/internal/domain"
)

const (
	// RedeemCost is the number of points a secret code costs.
	RedeemCost = 5
	// CodeLength is the length of generated secret codes.
	CodeLength = 8

	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxCodeAttempts = 16
)

// PointsForPercentage converts a quiz percentage into loyalty points.
func PointsForPercentage(pct int) int {
	switch {
	case pct == 100:
		return 2
	case pct >= 80 && pct < 100:
		return 1
	default:
		return 0
	}
}

// GenerateCode draws CodeLength characters uniformly from [A-Z0-9].
func GenerateCode() (string, error) {
	var sb strings.Builder
	sb.Grow(CodeLength)
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		sb.WriteByte(codeAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

// Award summarizes a points update.
type Award struct {
	PointsEarned int  `json:"pointsEarned"`
	TotalPoints  int  `json:"totalPoints"`
	CanRedeem    bool `json:"canBuySecretCode"`
}

// Ledger is the process-wide reward ledger: points, secret codes and unlocked trophies.
type Ledger struct {
	mu      sync.Mutex
	store   Store
	now     func() time.Time
	newCode func() (string, error)
	log     *zap.Logger
}

func NewLedger(store Store, log *zap.Logger) *Ledger {
	return NewLedgerWithClock(store, time.Now, GenerateCode, log)
}

// NewLedgerWithClock is used by tests for deterministic timestamps and codes.
func NewLedgerWithClock(store Store, now func() time.Time, newCode func() (string, error), log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{store: store, now: now, newCode: newCode, log: log}
}

// AddPoints credits the points earned for a quiz percentage. Nothing is written
// when no point is earned.
func (l *Ledger) AddPoints(ctx context.Context, pct int, label string) (Award, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	points := PointsForPercentage(pct)
	rewards, err := l.loadLocked(ctx)
	if err != nil {
		return Award{}, err
	}
	if points > 0 {
		rewards.TotalPoints += points
		rewards.PointsHistory = append(rewards.PointsHistory, domain.PointsAward{
			Points:          points,
			QuizName:        label,
			ScorePercentage: pct,
			Date:            l.now(),
		})
		if err := saveJSON(ctx, l.store, KeyRewards, rewards); err != nil {
			return Award{}, fmt.Errorf("save rewards: %w", err)
		}
	}
	return Award{
		PointsEarned: points,
		TotalPoints:  rewards.TotalPoints,
		CanRedeem:    rewards.TotalPoints >= RedeemCost,
	}, nil
}

// CanRedeem reports whether the ledger holds enough points for a code.
func (l *Ledger) CanRedeem(ctx context.Context) bool {
	return l.TotalPoints(ctx) >= RedeemCost
}

// Redeem spends RedeemCost points on a one-time code unlocking trophyID.
func (l *Ledger) Redeem(ctx context.Context, trophyID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rewards, err := l.loadLocked(ctx)
	if err != nil {
		return "", err
	}
	if rewards.TotalPoints < RedeemCost {
		return "", domain.ErrInsufficientPoints
	}

	code, err := l.uniqueCodeLocked(rewards)
	if err != nil {
		return "", err
	}
	rewards.TotalPoints -= RedeemCost
	rewards.SecretCodes[code] = domain.SecretCode{
		TrophyID:    trophyID,
		DateCreated: l.now(),
	}
	if err := saveJSON(ctx, l.store, KeyRewards, rewards); err != nil {
		return "", fmt.Errorf("save rewards: %w", err)
	}
	l.log.Info("secret code issued", zap.String("trophy", trophyID), zap.Int("remaining", rewards.TotalPoints))
	return code, nil
}

// UseCode redeems a code once and unlocks its trophy.
func (l *Ledger) UseCode(ctx context.Context, code string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	code = normalizeCode(code)
	rewards, err := l.loadLocked(ctx)
	if err != nil {
		return "", err
	}
	entry, ok := rewards.SecretCodes[code]
	if !ok {
		return "", domain.ErrInvalidCode
	}
	if entry.Used {
		return "", domain.ErrCodeUsed
	}

	usedAt := l.now()
	entry.Used = true
	entry.DateUsed = &usedAt
	rewards.SecretCodes[code] = entry
	if !containsString(rewards.UnlockedTrophies, entry.TrophyID) {
		rewards.UnlockedTrophies = append(rewards.UnlockedTrophies, entry.TrophyID)
	}
	if err := saveJSON(ctx, l.store, KeyRewards, rewards); err != nil {
		return "", fmt.Errorf("save rewards: %w", err)
	}
	return entry.TrophyID, nil
}

// IsCodeValid reports whether code exists and is unused.
func (l *Ledger) IsCodeValid(ctx context.Context, code string) bool {
	rewards := l.Snapshot(ctx)
	entry, ok := rewards.SecretCodes[normalizeCode(code)]
	return ok && !entry.Used
}

func (l *Ledger) TotalPoints(ctx context.Context) int {
	return l.Snapshot(ctx).TotalPoints
}

func (l *Ledger) UnlockedTrophies(ctx context.Context) []string {
	return l.Snapshot(ctx).UnlockedTrophies
}

func (l *Ledger) History(ctx context.Context) []domain.PointsAward {
	return l.Snapshot(ctx).PointsHistory
}

// Snapshot returns a copy of the ledger document, or an empty one when the store
// cannot be read.
func (l *Ledger) Snapshot(ctx context.Context) domain.Rewards {
	l.mu.Lock()
	defer l.mu.Unlock()
	rewards, err := l.loadLocked(ctx)
	if err != nil {
		l.log.Warn("rewards unavailable", zap.Error(err))
	}
	return rewards
}

// Reset clears every reward.
func (l *Ledger) Reset(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.store.Remove(ctx, KeyRewards)
}

// loadLocked yields an empty ledger for a missing or undecodable document. Read
// failures are returned so that writers never replace the stored ledger.
func (l *Ledger) loadLocked(ctx context.Context) (domain.Rewards, error) {
	rewards := domain.NewRewards()
	if err := loadJSON(ctx, l.store, KeyRewards, &rewards); err != nil {
		switch {
		case errors.Is(err, domain.ErrKeyNotFound):
		case errors.Is(err, errCorruptDocument):
			l.log.Warn("rewards unreadable, starting empty", zap.Error(err))
		default:
			return domain.NewRewards(), fmt.Errorf("load rewards: %w", err)
		}
		return domain.NewRewards(), nil
	}
	if rewards.SecretCodes == nil {
		rewards.SecretCodes = make(map[string]domain.SecretCode)
	}
	if rewards.UnlockedTrophies == nil {
		rewards.UnlockedTrophies = []string{}
	}
	if rewards.PointsHistory == nil {
		rewards.PointsHistory = []domain.PointsAward{}
	}
	if rewards.TotalPoints < 0 {
		rewards.TotalPoints = 0
	}
	return rewards, nil
}

func (l *Ledger) uniqueCodeLocked(rewards domain.Rewards) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := l.newCode()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		if _, taken := rewards.SecretCodes[code]; !taken {
			return code, nil
		}
	}
	return "", errors.New("generate code: no unique code available")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
