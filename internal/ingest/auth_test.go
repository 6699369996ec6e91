package ingest

import "testing"

func TestAuthorize(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		query    string
		expected string
		wantOK   bool
	}{
		{"header token matches", "secret", "", "secret", true},
		{"query token matches", "", "secret", "secret", true},
		{"either token suffices", "wrong", "secret", "secret", true},
		{"both wrong", "nope", "nah", "secret", false},
		{"no token presented", "", "", "secret", false},
		{"empty expected locks the gate", "", "", "", false},
		{"empty presented does not match empty expected", "", "", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(tc.header, tc.query, tc.expected)
			if tc.wantOK && err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if !tc.wantOK && err != ErrUnauthorized {
				t.Fatalf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}
