package content

import (
	"math"
	"strings"
)

const wordsPerMinute = 220

func WordCount(body string) int {
	return len(strings.Fields(body))
}

// ReadingMinutes estimates reading time, never less than one minute.
func ReadingMinutes(body string) int {
	minutes := int(math.Round(float64(WordCount(body)) / wordsPerMinute))
	return max(1, minutes)
}
