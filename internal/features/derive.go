// Package features derives the enriched feature set from raw applicant
// attributes. Derivation is a pure function of its inputs: no I/O, no
// shared state, byte-identical output for identical input.
package features

import (
	"math"

	"github.com/opensource-finance/harrier/internal/domain"
)

// MonthlyInterestRate is the fixed rate used for the amortized payment
// estimate. It is an accepted business constant, not fit from data.
const MonthlyInterestRate = 0.025

// Numeric lists the numeric feature names, raw and derived, in the order
// the model artifact expects them.
var Numeric = []string{
	"age", "number_of_dependents", "years_at_current_job", "monthly_income",
	"other_income_amount", "total_savings", "savings_account_age_months",
	"average_monthly_deposit", "num_previous_loans",
	"previous_loans_repaid_on_time", "existing_loan_balance",
	"existing_loan_monthly_payment", "requested_loan_amount",
	"loan_tenure_months",
	"estimated_monthly_payment", "debt_to_income_ratio",
	"loan_to_income_ratio", "savings_to_loan_ratio",
	"income_stability_score", "repayment_history_score",
	"total_monthly_income", "affordability_ratio", "is_new_client",
}

// Categorical lists the string-valued feature names.
var Categorical = []string{
	"gender", "marital_status", "education_level", "employment_type",
	"employment_sector", "loan_purpose", "age_group",
}

// Boolean lists the flag feature names.
var Boolean = []string{
	"has_other_income", "has_existing_loan", "has_guarantor", "has_collateral",
}

// Derive computes the enriched feature set for one application. Every raw
// profile and loan field passes through unchanged alongside the derived
// features; rule conditions and the scorer see the union.
//
// Inputs are assumed to have passed validation: monthly_income >= 500,
// requested_loan_amount >= 500, and age >= 18, so the divisions below are
// safe without further guards.
func Derive(profile *domain.ApplicantProfile, loan *domain.LoanRequest) domain.FeatureSet {
	payment := AmortizedPayment(loan.RequestedLoanAmount, loan.LoanTenureMonths)
	totalIncome := profile.MonthlyIncome + profile.OtherIncomeAmount

	// Denominator floored at 1 so first-time borrowers score 0 instead
	// of dividing by zero.
	loanCount := profile.NumPreviousLoans
	if loanCount < 1 {
		loanCount = 1
	}

	isNewClient := 0.0
	if profile.NumPreviousLoans == 0 {
		isNewClient = 1.0
	}

	return domain.FeatureSet{
		// Raw profile fields
		"age":                           float64(profile.Age),
		"gender":                        profile.Gender,
		"marital_status":                profile.MaritalStatus,
		"number_of_dependents":          float64(profile.NumberOfDependents),
		"education_level":               profile.EducationLevel,
		"employment_type":               profile.EmploymentType,
		"employment_sector":             profile.EmploymentSector,
		"years_at_current_job":          profile.YearsAtCurrentJob,
		"monthly_income":                profile.MonthlyIncome,
		"has_other_income":              profile.HasOtherIncome,
		"other_income_amount":           profile.OtherIncomeAmount,
		"total_savings":                 profile.TotalSavings,
		"savings_account_age_months":    float64(profile.SavingsAccountAgeMonths),
		"average_monthly_deposit":       profile.AverageMonthlyDeposit,
		"num_previous_loans":            float64(profile.NumPreviousLoans),
		"previous_loans_repaid_on_time": float64(profile.PreviousLoansRepaidOnTime),
		"has_existing_loan":             profile.HasExistingLoan,
		"existing_loan_balance":         profile.ExistingLoanBalance,
		"existing_loan_monthly_payment": profile.ExistingLoanMonthlyPayment,

		// Raw loan fields
		"requested_loan_amount": loan.RequestedLoanAmount,
		"loan_purpose":          loan.LoanPurpose,
		"loan_tenure_months":    float64(loan.LoanTenureMonths),
		"has_guarantor":         loan.HasGuarantor,
		"has_collateral":        loan.HasCollateral,

		// Derived features
		"estimated_monthly_payment": payment,
		"debt_to_income_ratio":      (profile.ExistingLoanMonthlyPayment + payment) / profile.MonthlyIncome,
		"loan_to_income_ratio":      loan.RequestedLoanAmount / (profile.MonthlyIncome * 12),
		"savings_to_loan_ratio":     profile.TotalSavings / loan.RequestedLoanAmount,
		"income_stability_score":    profile.YearsAtCurrentJob / float64(profile.Age),
		"repayment_history_score":   float64(profile.PreviousLoansRepaidOnTime) / float64(loanCount),
		"total_monthly_income":      totalIncome,
		"affordability_ratio":       (totalIncome - profile.ExistingLoanMonthlyPayment - payment) / totalIncome,
		"is_new_client":             isNewClient,
		"age_group":                 AgeGroup(profile.Age),
	}
}

// AmortizedPayment returns the standard annuity payment for the requested
// amount over the tenure at the fixed monthly rate:
// P*r*(1+r)^n / ((1+r)^n - 1).
func AmortizedPayment(amount float64, tenureMonths int) float64 {
	r := MonthlyInterestRate
	growth := math.Pow(1+r, float64(tenureMonths))
	return amount * r * growth / (growth - 1)
}

// AgeGroup buckets an age into young (<=25), adult (<=45), or senior.
func AgeGroup(age int) string {
	switch {
	case age <= 25:
		return "young"
	case age <= 45:
		return "adult"
	default:
		return "senior"
	}
}
