package judge

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`-?\d[\d,]*(?:\.\d+)?`)

// extractNumbers pulls numeric values out of free text. Thousands
// separators and trailing percent signs are tolerated.
func extractNumbers(text string) []float64 {
	matches := numberPattern.FindAllString(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		m = strings.ReplaceAll(m, ",", "")
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// claimedValue returns the first number in the claim text, which is
// taken as the value under verification.
func claimedValue(text string) (float64, bool) {
	nums := extractNumbers(text)
	if len(nums) == 0 {
		return 0, false
	}
	return nums[0], true
}

// closestEvidenceValue scans the evidence texts for the number nearest
// to the claimed value.
func closestEvidenceValue(claimed float64, texts []string) (float64, bool) {
	best := 0.0
	found := false
	for _, text := range texts {
		for _, v := range extractNumbers(text) {
			if !found || math.Abs(v-claimed) < math.Abs(best-claimed) {
				best = v
				found = true
			}
		}
	}
	return best, found
}
