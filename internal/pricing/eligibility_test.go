package pricing

import (
	"testing"
	"time"
)

var evalNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func TestRuleActiveAtWindow(t *testing.T) {
	before := evalNow.Add(-time.Hour)
	after := evalNow.Add(time.Hour)
	cases := []struct {
		name  string
		from  *time.Time
		until *time.Time
		want  bool
	}{
		{"open", nil, nil, true},
		{"inside", timePtr(before), timePtr(after), true},
		{"from only started", timePtr(before), nil, true},
		{"from only pending", timePtr(after), nil, false},
		{"until only valid", nil, timePtr(after), true},
		{"until only expired", nil, timePtr(before), false},
		{"inclusive start", timePtr(evalNow), timePtr(after), true},
		{"inclusive end", timePtr(before), timePtr(evalNow), true},
		{"expired window", timePtr(before.Add(-time.Hour)), timePtr(before), false},
	}
	for _, tc := range cases {
		r := Rule{ValidFrom: tc.from, ValidUntil: tc.until}
		if got := r.ActiveAt(evalNow); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestFilterEligibleTargets(t *testing.T) {
	buyer := Buyer{CompanyID: "co-1", CompanyGroup: "wholesale", CompanyUserID: "user-9"}
	rules := []Rule{
		{ID: "all", MerchantID: "m1", IsActive: true, Target: TargetAll{}},
		{ID: "company", MerchantID: "m1", IsActive: true, Target: TargetCompany{CompanyID: "co-1"}},
		{ID: "other-company", MerchantID: "m1", IsActive: true, Target: TargetCompany{CompanyID: "co-2"}},
		{ID: "group", MerchantID: "m1", IsActive: true, Target: TargetCompanyGroup{Group: "wholesale"}},
		{ID: "other-group", MerchantID: "m1", IsActive: true, Target: TargetCompanyGroup{Group: "retail"}},
		{ID: "user", MerchantID: "m1", IsActive: true, Target: TargetCompanyUser{UserID: "user-9"}},
		{ID: "inactive", MerchantID: "m1", IsActive: false, Target: TargetAll{}},
		{ID: "foreign", MerchantID: "m2", IsActive: true, Target: TargetAll{}},
		{ID: "untargeted", MerchantID: "m1", IsActive: true},
	}
	got := FilterEligible("m1", buyer, evalNow, rules)
	want := []string{"all", "company", "group", "user"}
	if len(got) != len(want) {
		t.Fatalf("expected %d eligible rules, got %d: %+v", len(want), len(got), got)
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
}

func TestCompanyUserRuleNeedsUserID(t *testing.T) {
	rules := []Rule{{ID: "user", MerchantID: "m1", IsActive: true, Target: TargetCompanyUser{UserID: "user-9"}}}
	if got := FilterEligible("m1", Buyer{CompanyID: "co-1"}, evalNow, rules); len(got) != 0 {
		t.Fatalf("expected no eligible rules without user id, got %+v", got)
	}
	rules[0].Target = TargetCompanyUser{}
	if got := FilterEligible("m1", Buyer{CompanyID: "co-1"}, evalNow, rules); len(got) != 0 {
		t.Fatalf("empty target user must not match empty buyer user, got %+v", got)
	}
}

func TestFilterEligibleDropsExpiredRules(t *testing.T) {
	rules := []Rule{
		{ID: "expired", MerchantID: "m1", IsActive: true, Target: TargetAll{}, ValidUntil: timePtr(evalNow.Add(-time.Minute))},
		{ID: "future", MerchantID: "m1", IsActive: true, Target: TargetAll{}, ValidFrom: timePtr(evalNow.Add(time.Minute))},
	}
	if got := FilterEligible("m1", Buyer{CompanyID: "co-1"}, evalNow, rules); len(got) != 0 {
		t.Fatalf("expected no eligible rules, got %+v", got)
	}
}
