package contracts

import "time"

// StudentStatus is the enrolment state of a student
type StudentStatus string

const (
	StudentActive    StudentStatus = "Active"
	StudentInactive  StudentStatus = "Inactive"
	StudentGraduated StudentStatus = "Graduated"
)

// StudentStatuses lists every student status
func StudentStatuses() []string {
	return []string{string(StudentActive), string(StudentInactive), string(StudentGraduated)}
}

// Valid reports whether s is a known student status
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentActive, StudentInactive, StudentGraduated:
		return true
	}
	return false
}

// Student is an enrolled learner
type Student struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Grade          int           `json:"grade"`
	EnrollmentDate Date          `json:"enrollmentDate"`
	Status         StudentStatus `json:"status"`
	GraduationDate Date          `json:"graduationDate,omitempty"`
}

func (s *Student) EntityID() string      { return s.ID }
func (s *Student) EntityKind() Kind      { return KindStudent }
func (s *Student) SetEntityID(id string) { s.ID = id }

func (s *Student) Field(name string) (any, bool) {
	switch name {
	case "id":
		return s.ID, true
	case "name":
		return s.Name, true
	case "email":
		return s.Email, true
	case "grade":
		return s.Grade, true
	case "enrollmentDate":
		return dateField(s.EnrollmentDate)
	case "status":
		return string(s.Status), true
	case "graduationDate":
		return dateField(s.GraduationDate)
	}
	return nil, false
}

// Derive only drops a graduation date that no longer applies
func (s *Student) Derive(time.Time) {
	if s.Status != StudentGraduated {
		s.GraduationDate = ""
	}
}

func (s *Student) Validate() error {
	if !s.Status.Valid() {
		return invalidStatus(string(s.Status))
	}
	if s.Grade < 0 {
		return NewFieldError("grade", ReasonOutOfRange, "%d is negative", s.Grade)
	}
	err := firstErr(
		requireText("name", s.Name),
		requireText("email", s.Email),
		requireDate("enrollmentDate", s.EnrollmentDate),
	)
	if err != nil {
		return err
	}
	if s.Status == StudentGraduated {
		if err := requireDate("graduationDate", s.GraduationDate); err != nil {
			return err
		}
	}
	return firstErr(
		optionalDate("graduationDate", s.GraduationDate),
		notBefore("graduationDate", s.GraduationDate, s.EnrollmentDate, "enrollmentDate"),
	)
}

func (s *Student) Clone() *Student {
	c := *s
	return &c
}
