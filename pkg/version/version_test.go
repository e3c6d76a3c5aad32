package version

import "testing"

func TestIsNewer(t *testing.T) {
	tests := []struct {
		latest, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"1.10.0", "1.9.0", true},
		{"1.9.0", "1.10.0", false},
		{"v2.0.0", "1.99.99", true},
		{"1.2.3", "1.2.3", false},
		{"1.2.3", "1.2.3-dirty", false},
		{"1.2.4", "1.2.3-dirty", true},
	}

	for _, tt := range tests {
		if got := IsNewer(tt.latest, tt.current); got != tt.want {
			t.Errorf("IsNewer(%q, %q) = %v, want %v", tt.latest, tt.current, got, tt.want)
		}
	}
}

func TestFormatVersion(t *testing.T) {
	oldVersion, oldCommit, oldBuild := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = oldVersion, oldCommit, oldBuild }()

	Version, Commit, BuildTime = "1.0.0", "", ""
	if got := FormatVersion(); got != "1.0.0 (development)" {
		t.Errorf("FormatVersion() = %q", got)
	}

	Version, Commit, BuildTime = "1.0.0", "abc1234", "2024-01-01T00:00:00Z"
	if got := FormatVersion(); got != "1.0.0 (commit: abc1234, built at: 2024-01-01T00:00:00Z)" {
		t.Errorf("FormatVersion() = %q", got)
	}
}
