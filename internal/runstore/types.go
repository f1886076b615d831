package runstore

import (
	"errors"
	"time"
)

// #region run
// Run is one recorded analyze invocation.
type Run struct {
	RunID           string
	ContentPath     string
	Seed            uint64
	SampleCount     int
	ExpressionCount int
	CreatedAt       time.Time
	Expressions     []ExpressionRecord // only populated by GetRun
}

// #endregion run

// #region expression-record
// ExpressionRecord is the persisted summary of one expression diagnosis.
type ExpressionRecord struct {
	ExpressionID     string
	TriggerRate      float64
	TriggerCount     int
	SampleCount      int
	Tier             string
	UnreachableCount int
	WitnessFound     bool
	PrimaryEdit      string // description of the primary recommendation, empty if none
	Report           string // full markdown report
}

// #endregion expression-record

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")
