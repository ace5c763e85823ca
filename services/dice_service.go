// services/dice_service.go
package services

import (
	"io"

	"github.com/google/uuid"

	"github.com/wfunc/dicebox/logger"
	"github.com/wfunc/dicebox/models"
	"github.com/wfunc/dicebox/persistence"
	"github.com/wfunc/dicebox/state"
)

const (
	// DefaultHistoryLimit applies when a history request names no limit.
	DefaultHistoryLimit = 50
	// MaxHistoryLimit keeps a history reply inside one network frame.
	MaxHistoryLimit = 200
)

// DiceService 创建骰子并记录每一次按键
type DiceService struct {
	journal   persistence.Journal
	observers []state.Observer
	newRoller func() state.Roller
}

func NewDiceService(journal persistence.Journal, observers ...state.Observer) *DiceService {
	return &DiceService{
		journal:   journal,
		observers: observers,
	}
}

// SetRollerFactory makes every new dice use a roller from f.
func (s *DiceService) SetRollerFactory(f func() state.Roller) {
	s.newRoller = f
}

// NewDice returns a fresh dice whose presses are journaled under owner.
func (s *DiceService) NewDice(owner string, out io.Writer) *state.Context {
	opts := []state.Option{
		state.WithOutput(out),
		state.WithObserver(s.Recorder(owner)),
	}
	for _, o := range s.observers {
		opts = append(opts, state.WithObserver(o))
	}
	if s.newRoller != nil {
		opts = append(opts, state.WithRoller(s.newRoller()))
	}
	return state.NewContext(opts...)
}

// Recorder returns an observer that journals transitions under owner.
func (s *DiceService) Recorder(owner string) state.Observer {
	return state.ObserverFunc(func(t state.Transition) {
		if err := s.journal.SavePress(NewPressRecord(owner, t)); err != nil {
			logger.Log.Errorf("Failed to journal press for %s: %v", owner, err)
		}
	})
}

// History returns the newest records for owner, oldest first. The limit is
// clamped to (0, MaxHistoryLimit]; zero or negative means DefaultHistoryLimit.
func (s *DiceService) History(owner string, limit int) (models.History, error) {
	limit = ClampHistoryLimit(limit)
	records, err := s.journal.LoadHistory(owner, limit)
	if err != nil {
		return models.History{}, err
	}
	return models.History{Owner: owner, Records: records}, nil
}

func (s *DiceService) LastPress(owner string) (models.PressRecord, error) {
	return s.journal.LastPress(owner)
}

// ClampHistoryLimit maps a requested history limit into (0, MaxHistoryLimit].
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

func NewPressRecord(owner string, t state.Transition) models.PressRecord {
	record := models.PressRecord{
		ID:        uuid.New().String(),
		Owner:     owner,
		FromState: t.From.String(),
		ToState:   t.To.String(),
		Message:   t.Message,
		CreatedAt: t.At,
	}
	if t.Number != nil {
		n := int(*t.Number)
		record.Number = &n
	}
	return record
}
