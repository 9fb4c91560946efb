package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoDataToken     = errors.New("no classes/events token")
	ErrNoArrayLiteral  = errors.New("token is not assigned an array literal")
	ErrUnbalancedArray = errors.New("unbalanced array literal")
)

var dataTokens = []string{"classes", "events"}

// ExtractScriptArray finds the first array literal assigned to a "classes" or "events"
// identifier in script text and decodes it as JSON.
//
// Grammar, applied at each occurrence of a token in turn:
//
//	token   := ("classes" | "events") at an identifier boundary, optionally followed by a quote
//	assign  := ws* ("=" | ":") ws*
//	literal := "[" ... "]" with brackets balanced outside of string literals
//
// An occurrence that does not satisfy the grammar or does not decode is skipped. The error of
// the last rejected occurrence is returned when none succeeds.
func ExtractScriptArray(script string) ([]map[string]any, error) {
	lastErr := ErrNoDataToken

	for pos := 0; pos < len(script); {
		start, end := nextToken(script, pos)
		if start < 0 {
			break
		}
		pos = end

		literal, err := arrayAfter(script, end)
		if err != nil {
			lastErr = err
			continue
		}

		items, err := decodeItems(literal)
		if err != nil {
			lastErr = err
			continue
		}
		return items, nil
	}

	return nil, lastErr
}

func nextToken(s string, from int) (int, int) {
	best, bestEnd := -1, -1
	for _, token := range dataTokens {
		for i := from; i < len(s); {
			idx := strings.Index(s[i:], token)
			if idx < 0 {
				break
			}
			start := i + idx
			end := start + len(token)
			if isBoundary(s, start-1) && isBoundary(s, end) {
				if best < 0 || start < best {
					best, bestEnd = start, end
				}
				break
			}
			i = start + 1
		}
	}
	return best, bestEnd
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	c := s[i]
	return !(c == '_' || c == '$' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z')
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func arrayAfter(s string, i int) (string, error) {
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		i++
	}
	i = skipSpace(s, i)
	if i >= len(s) || (s[i] != '=' && s[i] != ':') {
		return "", ErrNoArrayLiteral
	}
	i = skipSpace(s, i+1)
	if i >= len(s) || s[i] != '[' {
		return "", ErrNoArrayLiteral
	}

	end, err := matchBracket(s, i)
	if err != nil {
		return "", err
	}
	return s[i : end+1], nil
}

// matchBracket returns the index of the "]" closing the "[" at open.
func matchBracket(s string, open int) (int, error) {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '"', '\'':
			quote = c
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, ErrUnbalancedArray
}

func decodeItems(literal string) ([]map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(literal))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode array literal: %w", err)
	}

	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if item, ok := r.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items, nil
}
