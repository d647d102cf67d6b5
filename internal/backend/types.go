package backend

// Student is the applicant record returned by /get-student.
type Student struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Position   string `json:"position"`
	Duration   string `json:"duration"`
	ResumeLink string `json:"resumeLink"`
}

// EnrollmentRecord is a paid enrollment as returned by /check-enrollment.
type EnrollmentRecord struct {
	EnrollmentID string `json:"enrollmentId"`
	Position     string `json:"position"`
	Duration     string `json:"duration"`
	PaymentID    string `json:"paymentId,omitempty"`
	ResumeLink   string `json:"resumeLink"`
	Status       string `json:"status,omitempty"`
}

// ScreeningRecord is a prior screening submission as returned by /all-screenings.
type ScreeningRecord struct {
	EnrollmentID string `json:"enrollmentId"`
	Position     string `json:"position"`
	Duration     string `json:"duration"`
	ResumeLink   string `json:"resumeLink"`
	Status       string `json:"status,omitempty"`
}

type EnrollmentList struct {
	Enrolled bool
	Records  []EnrollmentRecord
}

type ScreeningList struct {
	Found   bool
	Records []ScreeningRecord
}

type SubmitOutcome int

const (
	SubmitAccepted SubmitOutcome = iota
	SubmitDuplicate
	SubmitRejected
)

type SubmitResult struct {
	Outcome      SubmitOutcome
	EnrollmentID string
}

type LookupOutcome int

const (
	LookupApproved LookupOutcome = iota
	LookupNotApproved
	LookupUnknown
)

type StudentLookup struct {
	Outcome LookupOutcome
	Student Student
}

type Order struct {
	ID     string
	Amount int64
}

type VerifyOutcome int

const (
	VerifyAccepted VerifyOutcome = iota
	VerifyRejected
)

// VerifyRequest carries the full applicant record plus the checkout result
// to /verify.
type VerifyRequest struct {
	Student      Student
	EnrollmentID string
	OrderID      string
	PaymentID    string
	Signature    string
	UserEmail    string
}
