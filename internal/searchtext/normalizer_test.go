package searchtext

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_VietnameseAccents(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"full name", "Nguyễn Văn A", "nguyen van a"},
		{"stroked d lower", "đường Lê Lợi", "duong le loi"},
		{"stroked d upper", "Đà Nẵng", "da nang"},
		{"mixed tones", "sửa điều hòa", "sua dieu hoa"},
		{"already plain", "nguyen van a", "nguyen van a"},
		{"uppercase plain", "NGUYEN VAN A", "nguyen van a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_AccentInsensitivePairs(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	assert.Equal(t, n.Normalize("Nguyễn Văn A"), n.Normalize("nguyen van a"))
	assert.Equal(t, n.Normalize("Trần Đình"), n.Normalize("tran dinh"))
}

func TestNormalize_Whitespace(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	tests := []struct {
		input string
		want  string
	}{
		{"  Task   3 ", "task 3"},
		{" task  3", "task 3"},
		{"\ta\n b\t\tc ", "a b c"},
		{"", ""},
		{"   ", ""},
		// A token of bare combining marks is erased by the strip; the
		// spaces around it must not survive as a double space.
		{"a \u0301 b", "a b"},
		{"\u0301", ""},
		{"a \u0301\u0302 ", "a"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.input))
	}

	// A query with irregular spacing must match single-spaced stored text.
	stored := n.Normalize("Task   3 ")
	query := n.Normalize(" task  3")
	assert.True(t, strings.Contains(stored, query))
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(DefaultConfig())

	property := func(s string) bool {
		once := n.Normalize(s)
		return n.Normalize(once) == once
	}
	require.NoError(t, quick.Check(property, nil))

	for _, s := range []string{"Nguyễn Văn A", "  Đà   Nẵng ", "task 3", "ậẫổỡừữ", "a \u0301 b", "İstanbul"} {
		once := n.Normalize(s)
		assert.Equal(t, once, n.Normalize(once), "input %q", s)
	}
}

func TestNormalize_CustomSubstitutions(t *testing.T) {
	n := NewNormalizer(Config{Substitutions: map[rune]rune{'ø': 'o', 'Ø': 'O'}})

	assert.Equal(t, "smorrebrod", n.Normalize("Smørrebrød"))
	// đ is untouched without the Vietnamese table.
	assert.Equal(t, "đa", n.Normalize("Đà"))
}
