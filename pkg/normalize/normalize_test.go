package normalize

import "testing"

func TestApply(t *testing.T) {
	cases := []struct{ in, want string }{
		{"masterpiece,  1girl,   smiling", "masterpiece, 1girl, smiling"},
		{"a,, b", "a, b"},
		{"a , b", "a, b"},
		{"trailing comma,", "trailing comma"},
		{"  spaced all around  ", "spaced all around"},
		{"line one\n\nline two", "line one line two"},
		{"word1,  ,\n , word2", "word1, word2"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Apply(c.in); got != c.want {
			t.Errorf("Apply(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestApplyIdempotent(t *testing.T) {
	inputs := []string{
		"masterpiece,  1girl,   smiling",
		"a,, b, , c",
		"  already, normal, form  ",
		", , ,",
		"1girl, brown hair, detailed",
	}
	for _, in := range inputs {
		once := Apply(in)
		twice := Apply(once)
		if once != twice {
			t.Errorf("Apply not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}
