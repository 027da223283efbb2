// Package numtext renders monetary amounts as French text for printed
// documents (invoices and quotes carry the total "arrêté en lettres").
package numtext

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var units = []string{
	"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit",
	"neuf", "dix", "onze", "douze", "treize", "quatorze", "quinze", "seize",
}

var tens = map[int64]string{
	20: "vingt",
	30: "trente",
	40: "quarante",
	50: "cinquante",
	60: "soixante",
}

// below100 renders 0..99. French counts 70..79 on top of sixty and
// 80..99 on top of quatre-vingt.
func below100(n int64) string {
	switch {
	case n < 17:
		return units[n]
	case n < 20:
		return "dix-" + units[n-10]
	case n < 70:
		t := n / 10 * 10
		r := n % 10
		switch r {
		case 0:
			return tens[t]
		case 1:
			return tens[t] + " et un"
		default:
			return tens[t] + "-" + units[r]
		}
	case n < 80:
		if n == 71 {
			return "soixante et onze"
		}
		return "soixante-" + below100(n-60)
	default:
		if n == 80 {
			return "quatre-vingts"
		}
		return "quatre-vingt-" + below100(n-80)
	}
}

// below1000 renders 0..999. The plural "s" on "cents" only appears when
// nothing follows it, and never when the group multiplies a larger scale
// word (multiplier=true), per "deux cent mille".
func below1000(n int64, multiplier bool) string {
	h := n / 100
	r := n % 100
	if h == 0 {
		w := below100(r)
		if multiplier && strings.HasSuffix(w, "vingts") {
			w = strings.TrimSuffix(w, "s")
		}
		return w
	}

	var word string
	if h == 1 {
		word = "cent"
	} else {
		word = units[h] + " cent"
	}

	if r == 0 {
		if h > 1 && !multiplier {
			word += "s"
		}
		return word
	}
	return word + " " + below100(r)
}

// Words renders a non-negative integer as French text.
// Supports values up to the billions, which is ample for invoice totals.
func Words(n int64) string {
	if n < 0 {
		return "moins " + Words(-n)
	}
	if n == 0 {
		return "zéro"
	}

	var parts []string

	if g := n / 1_000_000_000; g > 0 {
		if g == 1 {
			parts = append(parts, "un milliard")
		} else {
			parts = append(parts, below1000(g, true)+" milliards")
		}
		n %= 1_000_000_000
	}

	if g := n / 1_000_000; g > 0 {
		if g == 1 {
			parts = append(parts, "un million")
		} else {
			parts = append(parts, below1000(g, true)+" millions")
		}
		n %= 1_000_000
	}

	if g := n / 1000; g > 0 {
		// "mille" is invariable and drops the "un" multiplier.
		if g == 1 {
			parts = append(parts, "mille")
		} else {
			parts = append(parts, below1000(g, true)+" mille")
		}
		n %= 1000
	}

	if n > 0 {
		parts = append(parts, below1000(n, false))
	}

	return strings.Join(parts, " ")
}

// AmountInWords renders an amount in cents as French dirham text,
// e.g. 123456 -> "mille deux cent trente-quatre dirhams et
// cinquante-six centimes".
func AmountInWords(cents int64) string {
	if cents < 0 {
		cents = -cents
	}
	dirhams := cents / 100
	centimes := cents % 100

	var b strings.Builder

	if dirhams > 0 || centimes == 0 {
		b.WriteString(Words(dirhams))
		if dirhams > 1 {
			b.WriteString(" dirhams")
		} else {
			b.WriteString(" dirham")
		}
	}

	if centimes > 0 {
		if dirhams > 0 {
			b.WriteString(" et ")
		}
		b.WriteString(Words(centimes))
		if centimes > 1 {
			b.WriteString(" centimes")
		} else {
			b.WriteString(" centime")
		}
	}

	return b.String()
}

// frPrinter formats numbers with French digit grouping and decimal comma.
var frPrinter = message.NewPrinter(language.French)

// FormatAmount renders an amount in cents as a localized figure,
// e.g. 1250 -> "12,50 DH".
func FormatAmount(cents int64) string {
	return frPrinter.Sprintf("%.2f DH", float64(cents)/100)
}
