package domain

import "time"

// RunStatus is the lifecycle status of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunRecord is the persisted summary of a test run.
type RunRecord struct {
	ID           string    `json:"id"`
	Test         string    `json:"test"`
	Status       RunStatus `json:"status"`
	Iterations   int       `json:"iterations"`
	SoftFailures int       `json:"soft_failures"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at,omitempty"`

	// History lists the actions executed by the last iteration, as "State.Action".
	History []string `json:"history,omitempty"`
	Error   string   `json:"error,omitempty"`

	// Sealed holds the encrypted History and Error when the store encrypts records at rest.
	Sealed string `json:"sealed,omitempty"`
}

// NewRunRecord creates a running record for test.
func NewRunRecord(id, test string) *RunRecord {
	return &RunRecord{
		ID:        id,
		Test:      test,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// HistoryNames formats actions as "State.Action".
func HistoryNames(actions []*Action) []string {
	out := make([]string, 0, len(actions))
	for _, a := range actions {
		if s := a.State(); s != nil {
			out = append(out, s.Name+"."+a.Name)
			continue
		}
		out = append(out, a.Name)
	}
	return out
}
