package app

import "testing"

func setBuildIdentity(t *testing.T, version, buildDate string) {
	t.Helper()
	origVersion, origDate := Version, BuildDate
	t.Cleanup(func() {
		Version = origVersion
		BuildDate = origDate
	})
	Version = version
	BuildDate = buildDate
}

func TestBuildVersion(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "unset falls back to dev", in: "", want: "dev"},
		{name: "whitespace falls back to dev", in: "   ", want: "dev"},
		{name: "release version passes through trimmed", in: " 1.4.0 ", want: "1.4.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBuildIdentity(t, tc.in, "")
			if got := BuildVersion(); got != tc.want {
				t.Fatalf("BuildVersion() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildDateYMD(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "rfc3339 stamp", in: "2026-08-24T09:12:00Z", want: "2026-08-24"},
		{name: "bare date", in: "2026-08-24", want: "2026-08-24"},
		{name: "unparseable stamp surfaces as is", in: "yesterday", want: "yesterday"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			setBuildIdentity(t, "dev", tc.in)
			if got := BuildDateYMD(); got != tc.want {
				t.Fatalf("BuildDateYMD() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBuildVersionWithDate(t *testing.T) {
	setBuildIdentity(t, "0.3.1", "2026-08-24T09:12:00Z")
	if got := BuildVersionWithDate(); got != "0.3.1 (2026-08-24)" {
		t.Fatalf("BuildVersionWithDate() = %q", got)
	}

	setBuildIdentity(t, "0.3.1", "")
	if got := BuildVersionWithDate(); got != "0.3.1" {
		t.Fatalf("BuildVersionWithDate() without a date = %q", got)
	}
}
