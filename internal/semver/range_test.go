package semver

import "testing"

func v(s string) Version { return MustParse(s) }

func TestParseConstraintExact(t *testing.T) {
	r, err := ParseConstraint("1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ev, ok := r.IsExact()
	if !ok || ev.String() != "1.2.3" {
		t.Fatalf("expected exact 1.2.3, got %v (ok=%v)", r, ok)
	}
}

func TestParseConstraintRange(t *testing.T) {
	r, err := ParseConstraint("1.0.0 <= v < 2.0.0")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !r.Contains(v("1.0.0")) || !r.Contains(v("1.9.9")) {
		t.Errorf("range should contain its lower bound and values below upper")
	}
	if r.Contains(v("2.0.0")) {
		t.Errorf("range should not contain its exclusive upper bound")
	}
	if r.Contains(v("0.9.9")) {
		t.Errorf("range should not contain values below its lower bound")
	}
}

func TestParseConstraintRejectsMalformed(t *testing.T) {
	cases := []string{
		" 1.0.0 <= v < 2.0.0",
		"1.0.0 <= v < 2.0.0 ",
		"1.0.0<=v<2.0.0",
		"1.0.0 <= v <  2.0.0",
		"1.0.0 <= v < 2.0.0 extra",
		"^1.0.0",
	}
	for _, s := range cases {
		if _, err := ParseConstraint(s); err == nil {
			t.Errorf("ParseConstraint(%q): expected error, got none", s)
		}
	}
}

func TestParseCaretConstraintIsProgrammaticOnly(t *testing.T) {
	r, err := ParseCaretConstraint("^1.2.3")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !r.Contains(v("1.9.9")) || r.Contains(v("2.0.0")) {
		t.Errorf("caret constraint should behave as until-next-major, got %v", r)
	}
	if _, err := ParseConstraint("^1.2.3"); err == nil {
		t.Errorf("ParseConstraint must reject caret form (manifest callers only)")
	}
}

func TestIntersectionCommutativeAndAssociative(t *testing.T) {
	a := UntilNextMajor(v("1.0.0"))
	b := Range{lower: InclusiveBound(v("1.2.0")), upper: UnboundedBound()}
	c := Range{lower: UnboundedBound(), upper: ExclusiveBound(v("1.5.0"))}

	ab := a.Intersect(b)
	ba := b.Intersect(a)
	if ab != ba {
		t.Errorf("intersection not commutative: %v vs %v", ab, ba)
	}

	left := a.Intersect(b).Intersect(c)
	right := a.Intersect(b.Intersect(c))
	if left != right {
		t.Errorf("intersection not associative: %v vs %v", left, right)
	}
}

func TestIntersectionEmptiness(t *testing.T) {
	vv := v("1.0.0")
	next := v("1.0.1")

	exact := Exact(vv)
	untilNext := UntilNextMajor(vv)
	if got := exact.Intersect(untilNext); got != exact {
		t.Errorf("intersect([v,v],[v,v+1)) = %v, want %v", got, exact)
	}

	halfOpenLow := Range{lower: InclusiveBound(vv), upper: ExclusiveBound(vv)}
	if halfOpenLow.IsEmpty() {
		t.Errorf("[v,v) should construct as non-empty range object, but Contains must match nothing")
	}
	if halfOpenLow.Contains(vv) {
		t.Errorf("[v,v) must not contain v")
	}

	a := Range{lower: InclusiveBound(vv), upper: ExclusiveBound(vv)} // [v, v)
	b := Range{lower: InclusiveBound(vv), upper: InclusiveBound(vv)} // [v, v]
	got := a.Intersect(b)
	if !got.IsEmpty() {
		t.Errorf("intersect([v,v),[v,v]) should be empty, got %v", got)
	}

	_ = next
}

func TestEmptyRangeMatchesNothing(t *testing.T) {
	e := Empty()
	for _, s := range []string{"0.0.0", "1.0.0", "999.999.999"} {
		if e.Contains(v(s)) {
			t.Errorf("empty range should not contain %s", s)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		r    Range
		want string
	}{
		{Exact(v("1.2.3")), "1.2.3"},
		{UntilNextMajor(v("1.2.3")), "1.2.3 <= v < 2.0.0"},
		{UntilNextMinor(v("1.2.3")), "1.2.3 <= v < 1.3.0"},
	}
	for _, tt := range tests {
		if got := tt.r.Format(); got != tt.want {
			t.Errorf("Format() = %q, want %q", got, tt.want)
		}
	}
}
