package matcher

import (
	"math"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// Similarity scores two codes from 0 to 100 using the Levenshtein ratio with
// substitutions costing 2, rounded half to even. It is symmetric and case
// sensitive: Similarity("ABCDE1", "ABCDE2") == 83.
func Similarity(a, b string) int {
	if a == b {
		return 100
	}
	ratio := levenshtein.RatioForStrings([]rune(a), []rune(b), levenshtein.DefaultOptions)
	return int(math.RoundToEven(ratio * 100))
}
