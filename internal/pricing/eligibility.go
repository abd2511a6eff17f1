package pricing

import "time"

// FilterEligible narrows rules to those usable by buyer at now. Input order is preserved.
func FilterEligible(merchantID string, buyer Buyer, now time.Time, rules []Rule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if !eligible(merchantID, buyer, now, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func eligible(merchantID string, buyer Buyer, now time.Time, r Rule) bool {
	if !r.IsActive {
		return false
	}
	if merchantID != "" && r.MerchantID != merchantID {
		return false
	}
	if !r.ActiveAt(now) {
		return false
	}
	if r.Target == nil {
		return false
	}
	return r.Target.Matches(buyer)
}
