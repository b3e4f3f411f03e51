package email

import "testing"

func TestDeriveNameFromEmail(t *testing.T) {
	cases := []struct {
		address     string
		first, last string
	}{
		{"jane.doe@example.com", "Jane", "Doe"},
		{"jane_van-doe@example.com", "Jane", "Doe"},
		{"compliance+alerts@acme.io", "Compliance", "Alerts"},
		{"admin@example.com", "Admin", "User"},
		{"@example.com", "User", "User"},
		{"", "User", "User"},
	}
	for _, tc := range cases {
		first, last := DeriveNameFromEmail(tc.address)
		if first != tc.first || last != tc.last {
			t.Errorf("DeriveNameFromEmail(%q) = (%q, %q), want (%q, %q)",
				tc.address, first, last, tc.first, tc.last)
		}
	}
}
