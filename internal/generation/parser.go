package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shiksha-labs/prashnagen/pkg/enums"
)

// Strategy names the parse attempt that produced the items.
type Strategy string

const (
	StrategyDirect            Strategy = "direct"
	StrategyBracketExtraction Strategy = "bracket_extraction"
	StrategyNone              Strategy = "none"
)

var ErrNoJSONArray = errors.New("no JSON array of question objects found")

// Item is one question as read from the generator output.
type Item struct {
	Question       string
	Options        []string
	CorrectAnswer  string
	Explanation    string
	Marks          *float64
	CognitiveLevel *string
}

// ParseResult is either a list of items with the strategy that found them, or
// an error with StrategyNone.
type ParseResult struct {
	Strategy Strategy
	Items    []Item
	// elements of the array that could not be decoded into an item
	Skipped int
	Err     error
}

func (r ParseResult) OK() bool { return r.Err == nil }

type rawItem struct {
	Question       string          `json:"question"`
	Options        json.RawMessage `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correct_answer"`
	Explanation    string          `json:"explanation"`
	Marks          json.RawMessage `json:"marks"`
	CognitiveLevel string          `json:"cognitive_level"`
}

// Parse reads a JSON array of question objects out of free text. The whole
// text is tried first; otherwise each balanced [...] span is tried in order.
// A non-empty array holding no objects is never accepted by either strategy.
func Parse(text string) ParseResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ParseResult{Strategy: StrategyNone, Err: ErrNoJSONArray}
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &elems); err == nil && (len(elems) == 0 || containsObject(elems)) {
		items, skipped := decodeItems(elems)
		return ParseResult{Strategy: StrategyDirect, Items: items, Skipped: skipped}
	}

	for start := strings.IndexByte(trimmed, '['); start >= 0; {
		end := matchBracket(trimmed, start)
		if end > start {
			var candidate []json.RawMessage
			if err := json.Unmarshal([]byte(trimmed[start:end+1]), &candidate); err == nil && containsObject(candidate) {
				items, skipped := decodeItems(candidate)
				return ParseResult{Strategy: StrategyBracketExtraction, Items: items, Skipped: skipped}
			}
		}
		next := strings.IndexByte(trimmed[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return ParseResult{Strategy: StrategyNone, Err: ErrNoJSONArray}
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1.
// Brackets inside JSON string literals are ignored.
func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func containsObject(elems []json.RawMessage) bool {
	for _, e := range elems {
		if b := bytes.TrimSpace(e); len(b) > 0 && b[0] == '{' {
			return true
		}
	}
	return false
}

func decodeItems(elems []json.RawMessage) ([]Item, int) {
	items := make([]Item, 0, len(elems))
	skipped := 0
	for _, e := range elems {
		item, err := decodeItem(e)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, item)
	}
	return items, skipped
}

func decodeItem(data json.RawMessage) (Item, error) {
	var raw rawItem
	if err := json.Unmarshal(data, &raw); err != nil {
		return Item{}, err
	}
	options, err := decodeOptions(raw.Options)
	if err != nil {
		return Item{}, fmt.Errorf("options: %w", err)
	}
	answer, err := decodeAnswer(raw.CorrectAnswer)
	if err != nil {
		return Item{}, fmt.Errorf("correct_answer: %w", err)
	}
	marks, err := decodeMarks(raw.Marks)
	if err != nil {
		return Item{}, fmt.Errorf("marks: %w", err)
	}
	item := Item{
		Question:      strings.TrimSpace(raw.Question),
		Options:       options,
		CorrectAnswer: answer,
		Explanation:   strings.TrimSpace(raw.Explanation),
		Marks:         marks,
	}
	if level := strings.TrimSpace(raw.CognitiveLevel); level != "" {
		item.CognitiveLevel = &level
	}
	return item, nil
}

// decodeOptions accepts an array of scalars or a label-to-text object.
func decodeOptions(data json.RawMessage) ([]string, error) {
	if isNull(data) {
		return nil, nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		out := make([]string, 0, len(list))
		for _, v := range list {
			s, err := scalarString(v)
			if err != nil {
				return nil, err
			}
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	var labelled map[string]json.RawMessage
	if err := json.Unmarshal(data, &labelled); err != nil {
		return nil, errors.New("expected array or object")
	}
	keys := make([]string, 0, len(labelled))
	for k := range labelled {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		s, err := scalarString(labelled[k])
		if err != nil {
			return nil, err
		}
		out = append(out, k+". "+strings.TrimSpace(s))
	}
	return out, nil
}

// decodeAnswer flattens strings, numbers, booleans and arrays of them.
func decodeAnswer(data json.RawMessage) (string, error) {
	if isNull(data) {
		return "", nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, v := range list {
			s, err := scalarString(v)
			if err != nil {
				return "", err
			}
			parts = append(parts, strings.TrimSpace(s))
		}
		return strings.Join(parts, ", "), nil
	}
	s, err := scalarString(data)
	return strings.TrimSpace(s), err
}

func decodeMarks(data json.RawMessage) (*float64, error) {
	if isNull(data) {
		return nil, nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		return &n, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func scalarString(data json.RawMessage) (string, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	case nil:
		return "", nil
	case map[string]any:
		// matching pairs arrive as small objects; keep them readable
		b, err := json.Marshal(t)
		return string(b), err
	default:
		return "", fmt.Errorf("unsupported value %s", string(data))
	}
}

func isNull(data json.RawMessage) bool {
	b := bytes.TrimSpace(data)
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

// Normalize drops items that cannot be stored for the question type and
// truncates the rest to limit. It returns the kept items and the drop count.
func Normalize(items []Item, qt enums.QuestionType, limit int) ([]Item, int) {
	kept := make([]Item, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item.Question == "" || item.CorrectAnswer == "" {
			dropped++
			continue
		}
		if qt == enums.QuestionTypeTrueFalse && len(item.Options) == 0 {
			item.Options = []string{"True", "False"}
		}
		if qt.HasOptions() && len(item.Options) < 2 {
			dropped++
			continue
		}
		if !qt.HasOptions() {
			item.Options = []string{}
		}
		kept = append(kept, item)
	}
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept, dropped
}
