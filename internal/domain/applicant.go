// Package domain defines the core types and interfaces for Harrier.
package domain

import (
	"fmt"
	"time"
)

// Enumerated applicant attribute values. These mirror the categories the
// scoring model was trained on; the engine itself only passes them through.
const (
	GenderMale   = "M"
	GenderFemale = "F"
)

// Marital status values.
const (
	MaritalSingle   = "single"
	MaritalMarried  = "married"
	MaritalDivorced = "divorced"
	MaritalWidowed  = "widowed"
)

// Education levels.
const (
	EducationNone      = "none"
	EducationBasic     = "basic"
	EducationSecondary = "secondary"
	EducationTertiary  = "tertiary"
)

// Employment types.
const (
	EmploymentFormal       = "formal"
	EmploymentInformal     = "informal"
	EmploymentSelfEmployed = "self_employed"
	EmploymentUnemployed   = "unemployed"
)

// Employment sectors.
const (
	SectorGovernment  = "government"
	SectorPrivate     = "private"
	SectorAgriculture = "agriculture"
	SectorTrading     = "trading"
	SectorOther       = "other"
)

// Loan purposes.
const (
	PurposeBusiness    = "business"
	PurposeEducation   = "education"
	PurposeMedical     = "medical"
	PurposeHousing     = "housing"
	PurposePersonal    = "personal"
	PurposeAgriculture = "agriculture"
)

// ApplicantProfile is the immutable demographic and financial snapshot of a
// loan applicant as submitted with a credit check.
type ApplicantProfile struct {
	Age                       int     `json:"age"`
	Gender                    string  `json:"gender"`
	MaritalStatus             string  `json:"marital_status"`
	NumberOfDependents        int     `json:"number_of_dependents"`
	EducationLevel            string  `json:"education_level"`
	EmploymentType            string  `json:"employment_type"`
	EmploymentSector          string  `json:"employment_sector"`
	YearsAtCurrentJob         float64 `json:"years_at_current_job"`
	MonthlyIncome             float64 `json:"monthly_income"`
	HasOtherIncome            bool    `json:"has_other_income"`
	OtherIncomeAmount         float64 `json:"other_income_amount"`
	TotalSavings              float64 `json:"total_savings"`
	SavingsAccountAgeMonths   int     `json:"savings_account_age_months"`
	AverageMonthlyDeposit     float64 `json:"average_monthly_deposit"`
	NumPreviousLoans          int     `json:"num_previous_loans"`
	PreviousLoansRepaidOnTime int     `json:"previous_loans_repaid_on_time"`
	HasExistingLoan           bool    `json:"has_existing_loan"`
	ExistingLoanBalance       float64 `json:"existing_loan_balance"`
	ExistingLoanMonthlyPayment float64 `json:"existing_loan_monthly_payment"`
}

// LoanRequest describes the loan the applicant is asking for.
type LoanRequest struct {
	RequestedLoanAmount float64 `json:"requested_loan_amount"`
	LoanPurpose         string  `json:"loan_purpose"`
	LoanTenureMonths    int     `json:"loan_tenure_months"`
	HasGuarantor        bool    `json:"has_guarantor"`
	HasCollateral       bool    `json:"has_collateral"`
}

// CreditCheckRequest is the API request payload for a credit check.
// ClientID is optional; one is generated when absent.
type CreditCheckRequest struct {
	ClientID string           `json:"client_id,omitempty"`
	Client   ApplicantProfile `json:"client"`
	Loan     LoanRequest      `json:"loan"`
}

// ValidationError reports a malformed or out-of-range input field.
// Inputs are rejected before the decision pipeline runs, never coerced.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks the profile invariants. Bounds follow the intake schema;
// the repaid-on-time count may never exceed the total loan count.
func (p *ApplicantProfile) Validate() error {
	if p.Age < 18 || p.Age > 65 {
		return invalid("client.age", "must be between 18 and 65, got %d", p.Age)
	}
	if p.Gender != GenderMale && p.Gender != GenderFemale {
		return invalid("client.gender", "must be M or F")
	}
	if p.NumberOfDependents < 0 || p.NumberOfDependents > 10 {
		return invalid("client.number_of_dependents", "must be between 0 and 10")
	}
	if p.YearsAtCurrentJob < 0 || p.YearsAtCurrentJob > 40 {
		return invalid("client.years_at_current_job", "must be between 0 and 40")
	}
	if p.MonthlyIncome < 500 {
		return invalid("client.monthly_income", "must be at least 500")
	}
	if p.OtherIncomeAmount < 0 {
		return invalid("client.other_income_amount", "must be non-negative")
	}
	if p.TotalSavings < 0 {
		return invalid("client.total_savings", "must be non-negative")
	}
	if p.SavingsAccountAgeMonths < 0 {
		return invalid("client.savings_account_age_months", "must be non-negative")
	}
	if p.AverageMonthlyDeposit < 0 {
		return invalid("client.average_monthly_deposit", "must be non-negative")
	}
	if p.NumPreviousLoans < 0 {
		return invalid("client.num_previous_loans", "must be non-negative")
	}
	if p.PreviousLoansRepaidOnTime < 0 {
		return invalid("client.previous_loans_repaid_on_time", "must be non-negative")
	}
	if p.PreviousLoansRepaidOnTime > p.NumPreviousLoans {
		return invalid("client.previous_loans_repaid_on_time",
			"repaid loans cannot exceed total previous loans (%d > %d)",
			p.PreviousLoansRepaidOnTime, p.NumPreviousLoans)
	}
	if p.ExistingLoanBalance < 0 {
		return invalid("client.existing_loan_balance", "must be non-negative")
	}
	if p.ExistingLoanMonthlyPayment < 0 {
		return invalid("client.existing_loan_monthly_payment", "must be non-negative")
	}
	return nil
}

// Validate checks the loan request bounds.
func (l *LoanRequest) Validate() error {
	if l.RequestedLoanAmount < 500 || l.RequestedLoanAmount > 500000 {
		return invalid("loan.requested_loan_amount", "must be between 500 and 500000, got %.2f", l.RequestedLoanAmount)
	}
	if l.LoanTenureMonths < 3 || l.LoanTenureMonths > 60 {
		return invalid("loan.loan_tenure_months", "must be between 3 and 60, got %d", l.LoanTenureMonths)
	}
	if l.LoanPurpose == "" {
		return invalid("loan.loan_purpose", "is required")
	}
	return nil
}

// Validate checks the full request.
func (r *CreditCheckRequest) Validate() error {
	if err := r.Client.Validate(); err != nil {
		return err
	}
	return r.Loan.Validate()
}

// Application is the persisted record of a submitted credit check.
type Application struct {
	ID        string           `json:"id"`
	ClientID  string           `json:"clientId"`
	Profile   ApplicantProfile `json:"profile"`
	Loan      LoanRequest      `json:"loan"`
	CreatedAt time.Time        `json:"createdAt"`
}
