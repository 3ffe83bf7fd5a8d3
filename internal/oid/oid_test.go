package oid

import "testing"

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "1.3.6.1.2.1.1.1.0", want: "1.3.6.1.2.1.1.1.0"},
		{in: ".1.3.6.1.2.1.1.1.0", want: "1.3.6.1.2.1.1.1.0"},
		{in: "1.3.6.1.2.1.1.1.0.", want: "1.3.6.1.2.1.1.1.0"},
		{in: "", wantErr: true},
		{in: ".", wantErr: true},
		{in: "1..2", wantErr: true},
		{in: "1.a.2", wantErr: true},
		{in: "1.4294967296", wantErr: true}, // overflows uint32
	}

	for _, c := range cases {
		got, err := Parse(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Parse(%q): unexpected error: %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("Parse(%q).String() = %q, want %q", c.in, got.String(), c.want)
		}
	}
}

func TestCompareNumericNotLexical(t *testing.T) {
	a := MustParse("1.3.6.1.2.1.2.2.1.2.1")
	b := MustParse("1.3.6.1.2.1.2.2.1.10.1")

	if Compare(a, b) != OrderLess {
		t.Fatalf("expected %v < %v numerically", a, b)
	}
	if !Less(a, b) {
		t.Fatalf("Less(%v, %v) = false, want true", a, b)
	}
}

func TestComparePrefixIsLess(t *testing.T) {
	short := MustParse("1.3.6.1")
	long := MustParse("1.3.6.1.2.1")

	if Compare(short, long) != OrderLess {
		t.Fatalf("shorter prefix OID must be Less")
	}
	if Compare(long, short) != OrderGreater {
		t.Fatalf("longer OID must be Greater than its prefix")
	}
	if Compare(short, short) != OrderEqual {
		t.Fatalf("identical OIDs must be Equal")
	}
}

func TestIsPrefixOf(t *testing.T) {
	root := MustParse("1.3.6.1.2.1.2")
	child := MustParse("1.3.6.1.2.1.2.2.1.10.1")
	sibling := MustParse("1.3.6.1.2.1.4.1.0")

	if !IsPrefixOf(root, child) {
		t.Errorf("expected root to be a prefix of child")
	}
	if IsPrefixOf(root, sibling) {
		t.Errorf("did not expect root to be a prefix of sibling")
	}
	if !IsPrefixOf(root, root) {
		t.Errorf("an OID is a prefix of itself")
	}
}
