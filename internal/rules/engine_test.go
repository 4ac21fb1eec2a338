package rules

import (
	"sync"
	"testing"

	"github.com/opensource-finance/harrier/internal/domain"
	"github.com/opensource-finance/harrier/internal/features"
)

func testFeatures() domain.FeatureSet {
	profile := &domain.ApplicantProfile{
		Age:                        30,
		Gender:                     domain.GenderMale,
		MaritalStatus:              domain.MaritalSingle,
		EducationLevel:             domain.EducationTertiary,
		EmploymentType:             domain.EmploymentFormal,
		EmploymentSector:           domain.SectorPrivate,
		YearsAtCurrentJob:          5,
		MonthlyIncome:              2500,
		TotalSavings:               4000,
		NumPreviousLoans:           2,
		PreviousLoansRepaidOnTime:  2,
	}
	loan := &domain.LoanRequest{
		RequestedLoanAmount: 8000,
		LoanPurpose:         domain.PurposePersonal,
		LoanTenureMonths:    12,
	}
	return features.Derive(profile, loan)
}

func TestEngineCreation(t *testing.T) {
	engine, err := NewEngine()
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	if engine.RulesCount() != 0 {
		t.Errorf("expected 0 rules, got %d", engine.RulesCount())
	}

	// Fresh engine decides nothing
	result := engine.CheckRules(testFeatures())
	if len(result.AutoReject) != 0 || len(result.AutoApprove) != 0 {
		t.Error("empty engine should fire no rules")
	}
}

func TestLoadConfigCountsRules(t *testing.T) {
	engine, _ := NewEngine()

	cfg := &domain.RuleConfig{
		Version: "1.0.0",
		Rules: domain.RuleSet{
			AutoReject: []domain.Rule{
				{Name: "unemployed", Condition: `employment_type == "unemployed"`, Message: "No income"},
			},
			AutoApprove: []domain.Rule{
				{Name: "saver", Condition: "savings_to_loan_ratio >= 1.0", Message: "Fully covered"},
			},
		},
	}

	if err := engine.LoadConfig(cfg); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if engine.RulesCount() != 2 {
		t.Errorf("expected 2 rules, got %d", engine.RulesCount())
	}
}

func TestLoadConfigNilRejected(t *testing.T) {
	engine, _ := NewEngine()
	if err := engine.LoadConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestAutoRejectShortCircuits(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			AutoReject: []domain.Rule{
				{Name: "always_reject", Condition: "monthly_income > 0.0", Message: "Reject"},
			},
			AutoApprove: []domain.Rule{
				{Name: "always_approve", Condition: "monthly_income > 0.0", Message: "Approve"},
			},
			RequireGuarantor: []domain.Rule{
				{Name: "always_guarantor", Condition: "monthly_income > 0.0", Message: "Guarantor"},
			},
		},
	})

	result := engine.CheckRules(testFeatures())

	if len(result.AutoReject) != 1 {
		t.Fatalf("expected 1 reject match, got %d", len(result.AutoReject))
	}
	if len(result.AutoApprove) != 0 || len(result.RequireGuarantor) != 0 {
		t.Error("auto_reject match must veto evaluation of later buckets")
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != "Reject" {
		t.Errorf("reject message should append bare, got %v", result.Recommendations)
	}
}

func TestGuarantorFlagSuppressedWhenPresent(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			RequireGuarantor: []domain.Rule{
				{Name: "needs_guarantor", Condition: "monthly_income < 5000.0", Message: "Income too low"},
			},
		},
	})

	profile := &domain.ApplicantProfile{
		Age: 30, Gender: "M", MonthlyIncome: 2500,
	}
	loan := &domain.LoanRequest{RequestedLoanAmount: 5000, LoanTenureMonths: 12, LoanPurpose: "personal"}

	// Without a guarantor the flag fires
	fs := features.Derive(profile, loan)
	result := engine.CheckRules(fs)
	if len(result.RequireGuarantor) != 1 {
		t.Fatalf("expected guarantor rule to fire, got %d", len(result.RequireGuarantor))
	}
	if result.Flags[0] != "Guarantor Required: Income too low" {
		t.Errorf("unexpected flag text: %q", result.Flags[0])
	}

	// With a guarantor the matching rule is satisfied, not flagged
	loan.HasGuarantor = true
	result = engine.CheckRules(features.Derive(profile, loan))
	if len(result.RequireGuarantor) != 0 || len(result.Flags) != 0 {
		t.Error("guarantor flag should be suppressed when a guarantor is present")
	}
}

func TestCollateralFlagText(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			RequireCollateral: []domain.Rule{
				{Name: "big_loan", Condition: "loan_to_income_ratio > 0.1", Message: "Large loan"},
			},
		},
	})

	result := engine.CheckRules(testFeatures())
	if len(result.RequireCollateral) != 1 {
		t.Fatalf("expected collateral rule to fire, got %d", len(result.RequireCollateral))
	}
	if result.Flags[0] != "Collateral Required: Large loan" {
		t.Errorf("unexpected flag text: %q", result.Flags[0])
	}
}

func TestAutoApproveMessagePrefix(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			AutoApprove: []domain.Rule{
				{Name: "clean_history", Condition: "repayment_history_score == 1.0", Message: "Perfect record"},
			},
		},
	})

	result := engine.CheckRules(testFeatures())
	if len(result.AutoApprove) != 1 {
		t.Fatalf("expected approve rule to fire, got %d", len(result.AutoApprove))
	}
	want := "Auto-approval criteria met: Perfect record"
	if result.Recommendations[0] != want {
		t.Errorf("recommendation = %q, want %q", result.Recommendations[0], want)
	}
}

func TestUndefinedIdentifierNeverFires(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			AutoReject: []domain.Rule{
				{Name: "bad_name", Condition: "no_such_feature > 1.0", Message: "Broken"},
			},
		},
	})

	// The broken rule is kept but marked, so counts stay honest
	if engine.RulesCount() != 1 {
		t.Errorf("expected broken rule to stay loaded, got count %d", engine.RulesCount())
	}

	result := engine.CheckRules(testFeatures())
	if len(result.AutoReject) != 0 {
		t.Error("rule over an undefined name must never fire")
	}
	if len(result.Faults) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(result.Faults))
	}
	if result.Faults[0].Rule != "bad_name" || result.Faults[0].Bucket != domain.BucketAutoReject {
		t.Errorf("fault misattributed: %+v", result.Faults[0])
	}
}

func TestNonBoolConditionNeverFires(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			AutoApprove: []domain.Rule{
				{Name: "numeric_result", Condition: "monthly_income + 1.0", Message: "Wrong type"},
			},
		},
	})

	result := engine.CheckRules(testFeatures())
	if len(result.AutoApprove) != 0 {
		t.Error("non-bool condition must never fire")
	}
	if len(result.Faults) != 1 {
		t.Errorf("expected 1 fault for non-bool condition, got %d", len(result.Faults))
	}
}

func TestIntLiteralsCompareAgainstDoubleFeatures(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{
		Rules: domain.RuleSet{
			AutoApprove: []domain.Rule{
				{Name: "int_compare", Condition: "age >= 18 && num_previous_loans >= 2", Message: "ok"},
			},
		},
	})

	result := engine.CheckRules(testFeatures())
	if len(result.AutoApprove) != 1 {
		t.Fatalf("int literal comparison should fire, faults: %+v", result.Faults)
	}
}

func TestThresholdDefaults(t *testing.T) {
	engine, _ := NewEngine()

	th := engine.Thresholds()
	if th.MinCreditScore != 0.5 || th.HighConfidence != 0.8 || th.LowConfidence != 0.4 {
		t.Errorf("unexpected defaults: %+v", th)
	}

	// Per-key fallback: only the configured key changes
	engine.LoadConfig(&domain.RuleConfig{
		Thresholds: map[string]float64{
			domain.ThresholdMinCreditScore: 0.65,
		},
	})
	th = engine.Thresholds()
	if th.MinCreditScore != 0.65 {
		t.Errorf("min_credit_score = %v, want 0.65", th.MinCreditScore)
	}
	if th.HighConfidence != 0.8 || th.LowConfidence != 0.4 {
		t.Errorf("unconfigured keys must keep defaults: %+v", th)
	}
}

func TestConfigSwapIsAtomic(t *testing.T) {
	engine, _ := NewEngine()
	engine.LoadConfig(&domain.RuleConfig{Version: "1"})

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			v := "1"
			if i%2 == 0 {
				v = "2"
			}
			engine.LoadConfig(&domain.RuleConfig{
				Version: v,
				Rules: domain.RuleSet{
					AutoApprove: []domain.Rule{
						{Name: "r" + v, Condition: "monthly_income > 0.0", Message: v},
					},
				},
			})
		}
	}()

	fs := testFeatures()
	for i := 0; i < 500; i++ {
		result := engine.CheckRules(fs)
		// Every evaluation sees a whole snapshot: exactly one rule,
		// never a mix of versions.
		if len(result.AutoApprove) > 1 {
			t.Fatalf("observed torn snapshot with %d rules", len(result.AutoApprove))
		}
	}
	close(stop)
	wg.Wait()
}
