package scoring

import (
	"regexp"
	"strconv"
	"strings"
)

// Submissions use "Answer N:" markers to delimit per-question answers.
var answerMarker = regexp.MustCompile(`(?im)^\s*answer\s+(\d+)\s*[:.]`)

// SplitAnswers carves a submission's raw text into one answer segment per
// question, matched by the question number in its marker. Questions
// without a marker get an empty segment. A submission with no markers at
// all is treated as a single answer to the first question.
func SplitAnswers(text string, numQuestions int) []string {
	answers := make([]string, numQuestions)

	matches := answerMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if numQuestions > 0 {
			answers[0] = strings.TrimSpace(text)
		}
		return answers
	}

	for i, match := range matches {
		number, err := strconv.Atoi(text[match[2]:match[3]])
		if err != nil || number < 1 || number > numQuestions {
			continue
		}

		start := match[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		answers[number-1] = strings.TrimSpace(text[start:end])
	}

	return answers
}
