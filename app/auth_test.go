package app

import "testing"

func TestAccessCodeAuthenticator(t *testing.T) {
	auth := NewAccessCodeAuthenticator("mel8beans")

	tests := []struct {
		name string
		code string
		want bool
	}{
		{"完全一致", "mel8beans", true},
		{"不一致", "wrong", false},
		{"大文字小文字が異なる", "Mel8Beans", false},
		{"前後の空白は許容しない", " mel8beans ", false},
		{"空文字", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := auth.Verify(tc.code); got != tc.want {
				t.Errorf("Verify(%q) = %v, want %v", tc.code, got, tc.want)
			}
		})
	}
}
