package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"guiderbooks-backend/internal/models"
)

var (
	// First array literal that holds at least one object. Lazy, so it stops
	// at the first "}]" boundary.
	embeddedArrayPattern = regexp.MustCompile(`\[\s*\{[\s\S]*?\}\s*\]`)

	// Object literal that opens with one of the assessment keys and runs to
	// the last closing brace in the text.
	embeddedAssessmentPattern = regexp.MustCompile(`\{\s*"(?:mcqs|trueFalse|fillups|qa)"\s*:[\s\S]*\}`)

	assessmentKeys = []string{"mcqs", "trueFalse", "fillups", "qa"}
)

var errNoEmbeddedJSON = errors.New("no embedded JSON structure found")

// CoerceQuiz turns raw model output into a list of quiz items. The whole
// text is parsed first; if that fails or is not an array of objects, the
// first embedded array literal is parsed instead. Items are returned as the
// model wrote them.
func CoerceQuiz(raw string) ([]json.RawMessage, error) {
	items, err := parseQuiz([]byte(raw))
	if err == nil {
		return items, nil
	}

	fragment, extractErr := extractEmbedded(raw, embeddedArrayPattern)
	if extractErr != nil {
		return nil, &CoercionError{Message: "Failed to extract valid JSON array from response.", Err: extractErr}
	}

	items, err = parseQuiz(fragment)
	if err != nil {
		return nil, &CoercionError{Message: "Failed to extract valid JSON array from response.", Err: err}
	}
	return items, nil
}

// CoerceAssessment turns raw model output into an assessment with all four
// sections present. Only the sections are checked; their items pass through.
func CoerceAssessment(raw string) (*models.Assessment, error) {
	assessment, err := parseAssessment([]byte(raw))
	if err == nil {
		return assessment, nil
	}

	fragment, extractErr := extractEmbedded(raw, embeddedAssessmentPattern)
	if extractErr != nil {
		return nil, &CoercionError{Message: "Failed to extract valid assessment JSON from response.", Err: extractErr}
	}

	assessment, err = parseAssessment(fragment)
	if err != nil {
		return nil, &CoercionError{Message: "Failed to extract valid assessment JSON from response.", Err: err}
	}
	return assessment, nil
}

// extractEmbedded returns the first match of pattern in raw.
func extractEmbedded(raw string, pattern *regexp.Regexp) ([]byte, error) {
	match := pattern.FindString(raw)
	if match == "" {
		return nil, errNoEmbeddedJSON
	}
	return []byte(match), nil
}

func parseQuiz(data []byte) ([]json.RawMessage, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("not a JSON array: %w", err)
	}
	if elems == nil {
		return nil, errors.New("quiz is null")
	}

	for i, elem := range elems {
		if !isJSONKind(elem, '{') {
			return nil, fmt.Errorf("element %d is not an object", i)
		}
	}
	return elems, nil
}

// quizItems reads question/answer pairs out of raw quiz items for storage.
func quizItems(raw []json.RawMessage) ([]models.QuizItem, error) {
	items := make([]models.QuizItem, 0, len(raw))
	for i, elem := range raw {
		var item models.QuizItem
		if err := json.Unmarshal(elem, &item); err != nil {
			return nil, fmt.Errorf("quiz item %d: %w", i, err)
		}
		items = append(items, item)
	}
	return items, nil
}

func parseAssessment(data []byte) (*models.Assessment, error) {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("not a JSON object: %w", err)
	}
	if sections == nil {
		return nil, errors.New("assessment is null")
	}

	for _, key := range assessmentKeys {
		section, ok := sections[key]
		if !ok {
			return nil, fmt.Errorf("missing %q section", key)
		}
		if !isJSONKind(section, '[') {
			return nil, fmt.Errorf("section %q is not an array", key)
		}
	}

	var assessment models.Assessment
	if err := json.Unmarshal(data, &assessment); err != nil {
		return nil, fmt.Errorf("decode assessment: %w", err)
	}
	return &assessment, nil
}

// isJSONKind reports whether the raw value starts with the given delimiter.
func isJSONKind(raw json.RawMessage, delim byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == delim
}
