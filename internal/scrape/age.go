package scrape

import (
	"math"
	"regexp"
	"strconv"
)

// AgeUnknown is the age of a token that cannot be read. It is larger than
// any threshold, so such records never pass a recency filter.
const AgeUnknown = math.MaxInt

var ageRe = regexp.MustCompile(`^(\d+)(h|d|mo)$`)

// AgeInDays maps an age token to whole days: "12h" -> 0, "3d" -> 3,
// "2mo" -> 60. Hours always count as today.
func AgeInDays(token string) int {
	m := ageRe.FindStringSubmatch(token)
	if m == nil {
		return AgeUnknown
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return AgeUnknown
	}

	switch m[2] {
	case "h":
		return 0
	case "d":
		return n
	case "mo":
		if n > AgeUnknown/30 {
			return AgeUnknown
		}
		return n * 30
	}
	return AgeUnknown
}
