package extractor

import "strings"

// rtlFolds maps look-alike Arabic-script variants to the Persian form and
// zero-width joiners to a plain space.
var rtlFolds = strings.NewReplacer(
	"\u064A", "\u06CC", // Arabic yeh -> Farsi yeh
	"\u0643", "\u06A9", // Arabic kaf -> keheh
	"\u0629", "\u0647", // teh marbuta -> heh
	"\u0622", "\u0627", // alef with madda -> alef
	"\u0625", "\u0627", // alef with hamza below -> alef
	"\u0623", "\u0627", // alef with hamza above -> alef
	"\u0621", "", // hamza
	"\u200C", " ", // ZWNJ
	"\u200D", " ", // ZWJ
	"\u200B", " ", // ZWSP
)

// HasRTL reports whether s contains a rune from the Arabic block.
func HasRTL(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}

// Canonicalize folds look-alike letters in text containing Arabic-block
// runes. Other text is returned unchanged.
func Canonicalize(s string) string {
	if !HasRTL(s) {
		return s
	}
	return rtlFolds.Replace(s)
}
