package idcloudhost

import (
	"strings"
	"testing"
)

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name      string
		osName    string
		osVersion string
		wantErr   string
	}{
		{"ubuntu_lts", "ubuntu", "24.04-lts", ""},
		{"debian", "debian", "12", ""},
		{"windows", "windows", "2019", ""},
		{"rhel_server", "rhel", "server_8.4", ""},
		{"version_from_other_family", "ubuntu", "9.x", "os_version must be one of"},
		{"unknown_family", "slackware", "15.0", "os_name must be one of"},
		{"empty_version", "fedora", "", "os_version must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateImage(tc.osName, tc.osVersion)
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOSNamesSortedAndComplete(t *testing.T) {
	names := OSNames()
	if len(names) != len(osVersions) {
		t.Fatalf("expected %d names, got %d", len(osVersions), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("names not sorted: %q before %q", names[i-1], names[i])
		}
	}
}

func TestOSVersionsDeduplicated(t *testing.T) {
	versions := OSVersions()
	seen := map[string]bool{}
	for _, v := range versions {
		if seen[v] {
			t.Fatalf("duplicate version %q", v)
		}
		seen[v] = true
	}
	// 9.x appears under several families but must be listed once.
	if !seen["9.x"] {
		t.Fatalf("expected 9.x in %v", versions)
	}
}
