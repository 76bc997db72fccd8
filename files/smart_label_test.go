package files

import "testing"

func TestSmartLabelPicksShortestUniqueSuffix(t *testing.T) {
	others := []string{"/home/a/top.vcd", "/home/b/top.vcd"}
	if got := smartLabel("/home/a/top.vcd", others); got != "a/top.vcd" {
		t.Fatalf("expected disambiguated suffix, got %q", got)
	}
}

func TestSmartLabelIsBasenameWhenUnique(t *testing.T) {
	others := []string{"/home/a/top.vcd", "/home/b/other.vcd"}
	if got := smartLabel("/home/a/top.vcd", others); got != "top.vcd" {
		t.Fatalf("expected bare basename, got %q", got)
	}
}

func TestWithTimeRangeAppendsOnlyWhenPresent(t *testing.T) {
	if got := withTimeRange("top.vcd", ""); got != "top.vcd" {
		t.Fatalf("empty range should leave label untouched, got %q", got)
	}
	if got := withTimeRange("top.vcd", "0s - 1.2ms"); got != "top.vcd (0s - 1.2ms)" {
		t.Fatalf("unexpected labeled range: %q", got)
	}
}
