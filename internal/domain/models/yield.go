package models

import "time"

// DateLayout is the calendar date format used on the wire and in the stores.
const DateLayout = "2006-01-02"

// Subject is one tracked animal belonging to an owner (farm account).
type Subject struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Label   string `json:"label"`
}

// YieldRecord is one day of production for a subject.
// Total is expected to equal Morning + Afternoon; the ingest path computes it and
// analytics trust the stored value.
type YieldRecord struct {
	SubjectID string    `json:"subject_id"`
	OwnerID   string    `json:"owner_id"`
	Date      time.Time `json:"date"`
	Morning   float64   `json:"morning"`
	Afternoon float64   `json:"afternoon"`
	Total     float64   `json:"total"`
}

// Day truncates t to a UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NewYieldRecord builds a record for date with Total computed from both milkings.
func NewYieldRecord(ownerID, subjectID string, date time.Time, morning, afternoon float64) YieldRecord {
	return YieldRecord{
		SubjectID: subjectID,
		OwnerID:   ownerID,
		Date:      Day(date),
		Morning:   morning,
		Afternoon: afternoon,
		Total:     morning + afternoon,
	}
}

// YieldEvent is the message published on the ingest topic.
type YieldEvent struct {
	EventID   string  `json:"event_id"`
	OwnerID   string  `json:"owner_id"`
	SubjectID string  `json:"subject_id"`
	Date      string  `json:"date"`
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Total     float64 `json:"total"`
	SentAt    int64   `json:"sent_at"` // unix millis
}

// Record converts the event back into a record, parsing Date with DateLayout.
func (e YieldEvent) Record() (YieldRecord, error) {
	d, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return YieldRecord{}, err
	}
	r := NewYieldRecord(e.OwnerID, e.SubjectID, d, e.Morning, e.Afternoon)
	if e.Total > 0 {
		r.Total = e.Total
	}
	return r, nil
}
