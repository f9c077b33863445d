package normalize

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEmail(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"user@example.com", "user@example.com"},
		{"USER@EXAMPLE.COM", "user@example.com"},
		{"  User@Example.Com  ", "user@example.com"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Email(tt.input); got != tt.want {
				t.Errorf("Email(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"John Doe", "John Doe"},
		{"  John Doe  ", "John Doe"},
		{"   ", ""},
		{"UPPERCASE NAME", "UPPERCASE NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Name(tt.input); got != tt.want {
				t.Errorf("Name(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestStatusAndRole(t *testing.T) {
	if got := Status("  Disabled  "); got != "disabled" {
		t.Errorf("Status() = %q", got)
	}
	if got := Role("OWNER"); got != "owner" {
		t.Errorf("Role() = %q", got)
	}
}

func TestTitle(t *testing.T) {
	if got := Title("  Write \t  tests\n"); got != "Write tests" {
		t.Errorf("Title() = %q, want %q", got, "Write tests")
	}

	long := strings.Repeat("é", MaxTitleLen+10)
	if got := Title(long); utf8.RuneCountInString(got) != MaxTitleLen {
		t.Errorf("Title() kept %d runes, want %d", utf8.RuneCountInString(got), MaxTitleLen)
	}
}
