package money

import (
	"encoding/json"
	"testing"
)

func TestArithmetic(t *testing.T) {
	a := MustParse("100.25")
	b := MustParse("0.75")

	if got := a.Add(b); !got.Equal(FromInt(101)) {
		t.Fatalf("add: got %s", got)
	}
	if got := a.Sub(b); !got.Equal(MustParse("99.50")) {
		t.Fatalf("sub: got %s", got)
	}
	if got := Min(a, b); !got.Equal(b) {
		t.Fatalf("min: got %s", got)
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("50000.01"); err != nil {
		t.Fatal(err)
	}
	if _, err := Parse("not-a-number"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestComparisons(t *testing.T) {
	if !Zero().IsZero() {
		t.Fatal("zero should be zero")
	}
	if !FromInt(-5).IsNegative() {
		t.Fatal("-5 should be negative")
	}
	if !FromInt(1).GreaterThan(Zero()) || !Zero().LessThan(FromInt(1)) {
		t.Fatal("ordering broken")
	}
	if FromInt(2).Cmp(FromInt(2)) != 0 {
		t.Fatal("cmp equal broken")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	in := MustParse("300000.50")
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out Amount
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Equal(in) {
		t.Fatalf("round trip mismatch: %s != %s", out, in)
	}
}

func TestScan(t *testing.T) {
	var a Amount
	if err := a.Scan("2000.0000"); err != nil {
		t.Fatal(err)
	}
	if !a.Equal(FromInt(2000)) {
		t.Fatalf("scan: got %s", a)
	}
}
