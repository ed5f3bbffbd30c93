package identifier

import "testing"

func TestValidateAcceptsPlainNames(t *testing.T) {
	cases := []string{"mock-namespace", "mock-package", "a1-b2", "namespace123"}
	for _, c := range cases {
		if !Validate(c) {
			t.Errorf("Validate(%q) = false, want true", c)
		}
	}
}

func TestValidateRejectsControlAndInvisible(t *testing.T) {
	cases := []string{
		"",
		"mock​namespace", // zero width space
		"mock\tnamespace",
		"mock namespace",
		"mock_namespace", // underscore is not '-'
		"😀package",
		"mock‮namespace", // RLO
	}
	for _, c := range cases {
		if Validate(c) {
			t.Errorf("Validate(%q) = true, want false", c)
		}
	}
}

func TestValidateRejectsMixedScript(t *testing.T) {
	// Latin 'mock' mixed with a Cyrillic 'о' (U+043E) mid-word.
	mixed := "mоck-namespace"
	if Validate(mixed) {
		t.Errorf("Validate(%q) = true, want false (mixed script)", mixed)
	}
}

func TestSkeletonFoldsConfusables(t *testing.T) {
	// Scenario 3 of spec.md §8: Greek omicron U+03BF in place of 'o'.
	a := "mock-namespace"
	b := "mοck-namespace"
	if Skeleton(a) != Skeleton(b) {
		t.Errorf("Skeleton(%q) = %q, Skeleton(%q) = %q, want equal", a, Skeleton(a), b, Skeleton(b))
	}
}

func TestSkeletonFoldsCyrillicA(t *testing.T) {
	// Scenario 4 of spec.md §8: Cyrillic 'а' (U+0430) in place of 'a'.
	a := "mock-package"
	b := "mock-pаckаge"
	if Skeleton(a) != Skeleton(b) {
		t.Errorf("Skeleton(%q) = %q, Skeleton(%q) = %q, want equal", a, Skeleton(a), b, Skeleton(b))
	}
}

func TestSkeletonDistinguishesUnrelatedNames(t *testing.T) {
	if Skeleton("mock-package") == Skeleton("other-package") {
		t.Errorf("unrelated names should not share a skeleton")
	}
}
