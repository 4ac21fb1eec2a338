package features

import (
	"math"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
)

func sampleProfile() *domain.ApplicantProfile {
	return &domain.ApplicantProfile{
		Age:                        35,
		Gender:                     domain.GenderFemale,
		MaritalStatus:              domain.MaritalMarried,
		NumberOfDependents:         2,
		EducationLevel:             domain.EducationSecondary,
		EmploymentType:             domain.EmploymentFormal,
		EmploymentSector:           domain.SectorPrivate,
		YearsAtCurrentJob:          7,
		MonthlyIncome:              3000,
		HasOtherIncome:             true,
		OtherIncomeAmount:          500,
		TotalSavings:               10000,
		SavingsAccountAgeMonths:    36,
		AverageMonthlyDeposit:      400,
		NumPreviousLoans:           4,
		PreviousLoansRepaidOnTime:  3,
		HasExistingLoan:            true,
		ExistingLoanBalance:        5000,
		ExistingLoanMonthlyPayment: 200,
	}
}

func sampleLoan() *domain.LoanRequest {
	return &domain.LoanRequest{
		RequestedLoanAmount: 12000,
		LoanPurpose:         domain.PurposeBusiness,
		LoanTenureMonths:    24,
		HasGuarantor:        false,
		HasCollateral:       true,
	}
}

func TestDeriveIsDeterministic(t *testing.T) {
	profile := sampleProfile()
	loan := sampleLoan()

	a := Derive(profile, loan)
	b := Derive(profile, loan)

	if len(a) != len(b) {
		t.Fatalf("feature counts differ: %d vs %d", len(a), len(b))
	}
	for name, av := range a {
		if bv := b[name]; av != bv {
			t.Errorf("feature %s differs between runs: %v vs %v", name, av, bv)
		}
	}
}

func TestDeriveRatios(t *testing.T) {
	profile := sampleProfile()
	loan := sampleLoan()
	fs := Derive(profile, loan)

	payment := AmortizedPayment(12000, 24)
	checks := map[string]float64{
		"estimated_monthly_payment": payment,
		"debt_to_income_ratio":      (200 + payment) / 3000,
		"loan_to_income_ratio":      12000.0 / (3000 * 12),
		"savings_to_loan_ratio":     10000.0 / 12000,
		"income_stability_score":    7.0 / 35,
		"repayment_history_score":   3.0 / 4,
		"total_monthly_income":      3500,
		"affordability_ratio":       (3500 - 200 - payment) / 3500,
		"is_new_client":             0,
	}

	for name, want := range checks {
		got := fs.Number(name)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestDeriveNewClientRepaymentScore(t *testing.T) {
	profile := sampleProfile()
	profile.NumPreviousLoans = 0
	profile.PreviousLoansRepaidOnTime = 0
	fs := Derive(profile, sampleLoan())

	if got := fs.Number("repayment_history_score"); got != 0 {
		t.Errorf("repayment_history_score for new client = %v, want 0", got)
	}
	if got := fs.Number("is_new_client"); got != 1 {
		t.Errorf("is_new_client = %v, want 1", got)
	}
}

func TestDerivePassesThroughRawFields(t *testing.T) {
	fs := Derive(sampleProfile(), sampleLoan())

	if got := fs.String("employment_type"); got != domain.EmploymentFormal {
		t.Errorf("employment_type = %q, want %q", got, domain.EmploymentFormal)
	}
	if got := fs.Number("age"); got != 35 {
		t.Errorf("age = %v, want 35", got)
	}
	if !fs.Bool("has_collateral") {
		t.Error("has_collateral should pass through as true")
	}
	if fs.Bool("has_guarantor") {
		t.Error("has_guarantor should pass through as false")
	}
}

func TestAmortizedPayment(t *testing.T) {
	// P*r*(1+r)^n / ((1+r)^n - 1) with r=0.025, n=12, P=10000
	growth := math.Pow(1.025, 12)
	want := 10000 * 0.025 * growth / (growth - 1)

	got := AmortizedPayment(10000, 12)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("AmortizedPayment(10000, 12) = %v, want %v", got, want)
	}

	// Longer tenure lowers the payment
	if AmortizedPayment(10000, 36) >= got {
		t.Error("longer tenure should lower the monthly payment")
	}
}

func TestAgeGroup(t *testing.T) {
	cases := []struct {
		age  int
		want string
	}{
		{18, "young"},
		{25, "young"},
		{26, "adult"},
		{45, "adult"},
		{46, "senior"},
		{65, "senior"},
	}
	for _, tc := range cases {
		if got := AgeGroup(tc.age); got != tc.want {
			t.Errorf("AgeGroup(%d) = %q, want %q", tc.age, got, tc.want)
		}
	}
}

func TestDeclaredNamesMatchDerivedSet(t *testing.T) {
	fs := Derive(sampleProfile(), sampleLoan())

	declared := make(map[string]bool)
	for _, name := range Numeric {
		declared[name] = true
	}
	for _, name := range Categorical {
		declared[name] = true
	}
	for _, name := range Boolean {
		declared[name] = true
	}

	for name := range fs {
		if !declared[name] {
			t.Errorf("derived feature %s not declared in name lists", name)
		}
	}
	for name := range declared {
		if _, ok := fs[name]; !ok {
			t.Errorf("declared feature %s not produced by Derive", name)
		}
	}
}
