package obs

import "testing"

func TestSQLHelpers(t *testing.T) {
	sql := "-- name: UpdateCartTotals :execrows\nUPDATE carts SET total = $1"
	if got := sqlcQueryName(sql); got != "UpdateCartTotals" {
		t.Fatalf("unexpected query name %q", got)
	}
	if got := sqlOperation(sql); got != "UPDATE" {
		t.Fatalf("unexpected operation %q", got)
	}
	if got := sqlcQueryName("select 1"); got != "" {
		t.Fatalf("expected no name, got %q", got)
	}
	if got := sqlOperation("select 1"); got != "SELECT" {
		t.Fatalf("unexpected operation %q", got)
	}
	if got := sqlOperation("  \n-- only a comment"); got != "" {
		t.Fatalf("expected empty operation, got %q", got)
	}
}
