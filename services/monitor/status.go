package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	StatusSuccess             = "success"
	StatusCompletedWithErrors = "completed_with_errors"
	StatusNoUrls              = "no_urls"
)

// Cycle summarizes one completed scan cycle.
type Cycle struct {
	StartTime       time.Time
	EndTime         time.Time
	UrlsChecked     int
	ChangesDetected int
	Errors          int
	Status          string
}

// RunStatus is the status file layout. The file holds only the most
// recent cycle and is rewritten after every one.
type RunStatus struct {
	LastRun LastRun `json:"last_run"`
}

type LastRun struct {
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	UrlsChecked     int       `json:"urls_checked"`
	ChangesDetected int       `json:"changes_detected"`
	Errors          int       `json:"errors"`
	Status          string    `json:"status"`
}

func WriteStatus(path string, cycle *Cycle) error {
	status := RunStatus{LastRun: LastRun{
		StartTime:       cycle.StartTime,
		EndTime:         cycle.EndTime,
		DurationSeconds: cycle.EndTime.Sub(cycle.StartTime).Seconds(),
		UrlsChecked:     cycle.UrlsChecked,
		ChangesDetected: cycle.ChangesDetected,
		Errors:          cycle.Errors,
		Status:          cycle.Status,
	}}
	raw, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}
	err = os.WriteFile(path, raw, 0644)
	if err != nil {
		return fmt.Errorf("write status file: %w", err)
	}
	return nil
}

// ReadStatus loads the status file. A cycle may be rewriting the file
// at the same moment, a torn read is retried briefly before giving up.
func ReadStatus(path string) (*RunStatus, error) {
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Millisecond * 50)
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var status RunStatus
		err = json.Unmarshal(raw, &status)
		if err != nil {
			lastErr = err
			continue
		}
		return &status, nil
	}
	return nil, fmt.Errorf("status file stayed unreadable: %w", lastErr)
}
