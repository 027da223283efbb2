package numtext

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWords(t *testing.T) {
	testCases := []struct {
		n    int64
		want string
	}{
		{0, "zéro"},
		{1, "un"},
		{16, "seize"},
		{17, "dix-sept"},
		{20, "vingt"},
		{21, "vingt et un"},
		{22, "vingt-deux"},
		{31, "trente et un"},
		{70, "soixante-dix"},
		{71, "soixante et onze"},
		{72, "soixante-douze"},
		{77, "soixante-dix-sept"},
		{80, "quatre-vingts"},
		{81, "quatre-vingt-un"},
		{90, "quatre-vingt-dix"},
		{91, "quatre-vingt-onze"},
		{99, "quatre-vingt-dix-neuf"},
		{100, "cent"},
		{101, "cent un"},
		{180, "cent quatre-vingts"},
		{200, "deux cents"},
		{201, "deux cent un"},
		{999, "neuf cent quatre-vingt-dix-neuf"},
		{1000, "mille"},
		{1001, "mille un"},
		{1100, "mille cent"},
		{2000, "deux mille"},
		{80000, "quatre-vingt mille"},
		{200000, "deux cent mille"},
		{1000000, "un million"},
		{2000000, "deux millions"},
		{1234567, "un million deux cent trente-quatre mille cinq cent soixante-sept"},
		{1000000000, "un milliard"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, Words(tc.n))
		})
	}
}

func TestWords_Negative(t *testing.T) {
	assert.Equal(t, "moins quarante-deux", Words(-42))
}

func TestAmountInWords(t *testing.T) {
	testCases := []struct {
		cents int64
		want  string
	}{
		{0, "zéro dirham"},
		{100, "un dirham"},
		{200, "deux dirhams"},
		{1, "un centime"},
		{50, "cinquante centimes"},
		{150, "un dirham et cinquante centimes"},
		{123456, "mille deux cent trente-quatre dirhams et cinquante-six centimes"},
		{100000, "mille dirhams"},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, AmountInWords(tc.cents))
		})
	}
}

func TestFormatAmount(t *testing.T) {
	got := FormatAmount(1250)

	// French locale uses a decimal comma; exact group separators vary by
	// CLDR version, so only the stable parts are asserted.
	assert.True(t, strings.HasSuffix(got, "DH"), "expected DH suffix, got %q", got)
	assert.Contains(t, got, "12,50")
}
