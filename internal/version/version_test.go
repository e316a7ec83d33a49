package version

import "testing"

func TestString(t *testing.T) {
	orig := Commit
	defer func() { Commit = orig }()

	Commit = "0123456789abcdef"
	BuildTime = "2026-10-14"
	want := "controlcard dev (commit: 0123456, built: 2026-10-14)"
	if got := String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	Commit = "abc"
	if got := String(); got != "controlcard dev (commit: abc, built: 2026-10-14)" {
		t.Errorf("short commit not kept: %q", got)
	}
}
