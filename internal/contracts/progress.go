package contracts

import "time"

// ProgressStatus is the state of a learning record
type ProgressStatus string

const (
	ProgressNotStarted ProgressStatus = "Not Started"
	ProgressInProgress ProgressStatus = "In Progress"
	ProgressCompleted  ProgressStatus = "Completed"
)

// ProgressStatuses lists every progress status
func ProgressStatuses() []string {
	return []string{string(ProgressNotStarted), string(ProgressInProgress), string(ProgressCompleted)}
}

// Valid reports whether s is a known progress status
func (s ProgressStatus) Valid() bool {
	switch s {
	case ProgressNotStarted, ProgressInProgress, ProgressCompleted:
		return true
	}
	return false
}

// Progress is one student's progress in one subject
// ⭐ 계약: Completed → score, completedDate 필수
type Progress struct {
	ID            string         `json:"id"`
	StudentID     string         `json:"studentId"`
	Subject       string         `json:"subject"`
	RecordedDate  Date           `json:"recordedDate"`
	Status        ProgressStatus `json:"status"`
	Score         *float64       `json:"score,omitempty"` // %, 0..100
	CompletedDate Date           `json:"completedDate,omitempty"`
	Notes         string         `json:"notes,omitempty"`
}

func (p *Progress) EntityID() string      { return p.ID }
func (p *Progress) EntityKind() Kind      { return KindProgress }
func (p *Progress) SetEntityID(id string) { p.ID = id }

func (p *Progress) References() []Reference {
	return []Reference{{Field: "studentId", Kind: KindStudent, ID: p.StudentID}}
}

func (p *Progress) Field(name string) (any, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "studentId":
		return p.StudentID, true
	case "subject":
		return p.Subject, true
	case "recordedDate":
		return dateField(p.RecordedDate)
	case "status":
		return string(p.Status), true
	case "score":
		return floatPtrField(p.Score)
	case "completedDate":
		return dateField(p.CompletedDate)
	case "notes":
		if p.Notes == "" {
			return nil, false
		}
		return p.Notes, true
	}
	return nil, false
}

func (p *Progress) Derive(time.Time) {
	if p.Status != ProgressCompleted {
		p.Score = nil
		p.CompletedDate = ""
	}
}

func (p *Progress) Validate() error {
	if !p.Status.Valid() {
		return invalidStatus(string(p.Status))
	}
	err := firstErr(
		requireText("studentId", p.StudentID),
		requireText("subject", p.Subject),
		requireDate("recordedDate", p.RecordedDate),
	)
	if err != nil {
		return err
	}
	if p.Status != ProgressCompleted {
		return nil
	}
	if p.Score == nil {
		return &FieldError{Field: "score", Reason: ReasonMissingField}
	}
	return firstErr(
		percent("score", *p.Score),
		requireDate("completedDate", p.CompletedDate),
	)
}

func (p *Progress) Clone() *Progress {
	c := *p
	c.Score = copyFloat(p.Score)
	return &c
}
