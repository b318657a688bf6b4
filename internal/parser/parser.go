// Package parser converts free-form Russian text into a reminder body and
// an absolute fire time. Matching is a chain of responsibility: an ordered
// list of independent matcher functions tried in fixed priority order,
// first success wins, no backtracking across matchers.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Typed parse errors. Callers are expected to map these to user-facing
// replies with errors.Is.
var (
	// ErrUnrecognized indicates no matcher recognized a time expression.
	ErrUnrecognized = errors.New("no time expression recognized")
	// ErrInvalidTime indicates a time-of-day outside 00:00-23:59.
	ErrInvalidTime = errors.New("invalid time of day")
	// ErrInvalidDuration indicates a non-positive relative duration.
	ErrInvalidDuration = errors.New("invalid duration")
)

// DefaultBody is substituted when stripping time tokens and filler words
// leaves the reminder text empty.
const DefaultBody = "Reminder"

// Result is a successfully parsed reminder: the remaining message body and
// the absolute instant at which the first delivery attempt is due.
type Result struct {
	Body  string
	RunAt time.Time
}

// Parser resolves time-of-day expressions against a fixed reference
// timezone. It is stateless and safe for concurrent use.
type Parser struct {
	loc *time.Location
}

// New creates a Parser that resolves times of day in the given location.
func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{loc: loc}
}

// match is the outcome of a single matcher: either a time of day or a
// relative duration, plus the indices of the tokens it consumed.
type match struct {
	hour, minute int
	minutes      int
	relative     bool
	consumed     []int
}

// matcherFunc inspects the token stream and returns a match, a typed
// validation error, or (nil, nil) when it does not apply.
type matcherFunc func(tokens []string) (*match, error)

// Parse converts text into a (body, runAt) pair or a typed error.
// now supplies the reference instant so callers can test deterministically;
// it is converted to the parser's timezone before time-of-day resolution.
func (p *Parser) Parse(text string, now time.Time) (Result, error) {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Result{}, ErrUnrecognized
	}

	matchers := []matcherFunc{
		matchClockTime,
		matchPrepositionHourMinute,
		matchPrepositionHour,
		matchSpokenTime,
		matchDuration,
	}

	var m *match
	for _, fn := range matchers {
		var err error
		m, err = fn(tokens)
		if err != nil {
			return Result{}, err
		}
		if m != nil {
			break
		}
	}
	if m == nil {
		return Result{}, ErrUnrecognized
	}

	var runAt time.Time
	if m.relative {
		runAt = now.Add(time.Duration(m.minutes) * time.Minute)
	} else {
		runAt = p.nextTimeOfDay(now, m.hour, m.minute)
	}

	return Result{Body: buildBody(tokens, m.consumed), RunAt: runAt}, nil
}

// nextTimeOfDay resolves hour:minute to today's date in the reference
// timezone, rolling forward exactly one day when that moment is not
// strictly in the future.
func (p *Parser) nextTimeOfDay(now time.Time, hour, minute int) time.Time {
	local := now.In(p.loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, p.loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

var clockTimeRe = regexp.MustCompile(`^(\d{1,2})[:.](\d{1,2})$`)

// matchClockTime recognizes an explicit HH:MM or HH.MM token, optionally
// preceded by the preposition в/во.
func matchClockTime(tokens []string) (*match, error) {
	for i, tok := range tokens {
		groups := clockTimeRe.FindStringSubmatch(normalizeToken(tok))
		if groups == nil {
			continue
		}

		hour, _ := strconv.Atoi(groups[1])
		minute, _ := strconv.Atoi(groups[2])
		if err := validateTimeOfDay(hour, minute); err != nil {
			return nil, err
		}

		consumed := []int{i}
		if i > 0 && isPreposition(tokens[i-1]) {
			consumed = append(consumed, i-1)
		}
		return &match{hour: hour, minute: minute, consumed: consumed}, nil
	}
	return nil, nil
}

// matchPrepositionHourMinute recognizes "в HH MM" with a space-separated
// digit pair.
func matchPrepositionHourMinute(tokens []string) (*match, error) {
	for i := 0; i+2 < len(tokens); i++ {
		if !isPreposition(tokens[i]) {
			continue
		}
		hour, ok := digitValue(tokens[i+1])
		if !ok {
			continue
		}
		minute, ok := digitValue(tokens[i+2])
		if !ok {
			continue
		}

		if err := validateTimeOfDay(hour, minute); err != nil {
			return nil, err
		}
		return &match{hour: hour, minute: minute, consumed: []int{i, i + 1, i + 2}}, nil
	}
	return nil, nil
}

// matchPrepositionHour recognizes "в HH"; the minute defaults to zero.
func matchPrepositionHour(tokens []string) (*match, error) {
	for i := 0; i+1 < len(tokens); i++ {
		if !isPreposition(tokens[i]) {
			continue
		}
		hour, ok := digitValue(tokens[i+1])
		if !ok {
			continue
		}

		if err := validateTimeOfDay(hour, 0); err != nil {
			return nil, err
		}
		return &match{hour: hour, consumed: []int{i, i + 1}}, nil
	}
	return nil, nil
}

// matchSpokenTime recognizes spelled-out times: number words optionally
// preceded by в/во and followed by час/часа/часов, plus the literals
// полдень (12:00) and полночь (00:00).
func matchSpokenTime(tokens []string) (*match, error) {
	for i := range tokens {
		start := i
		consumed := []int{}
		if isPreposition(tokens[i]) {
			if i+1 >= len(tokens) {
				continue
			}
			consumed = append(consumed, i)
			start = i + 1
		}

		word := normalizeToken(tokens[start])
		switch word {
		case "полдень":
			return &match{hour: 12, consumed: append(consumed, start)}, nil
		case "полночь":
			return &match{hour: 0, consumed: append(consumed, start)}, nil
		}

		hour, n, ok := spelledNumberAt(tokens, start)
		if !ok {
			continue
		}
		for j := 0; j < n; j++ {
			consumed = append(consumed, start+j)
		}

		hasSuffix := false
		if next := start + n; next < len(tokens) && isHourWord(tokens[next]) {
			consumed = append(consumed, next)
			hasSuffix = true
		}

		// A bare number word is not a time expression; it needs the
		// preposition or the hour-unit suffix as an anchor.
		if start == i && !hasSuffix {
			continue
		}

		if err := validateTimeOfDay(hour, 0); err != nil {
			return nil, err
		}
		return &match{hour: hour, consumed: consumed}, nil
	}
	return nil, nil
}

var signedDigitsRe = regexp.MustCompile(`^-?\d+$`)

// matchDuration recognizes "через N [минут]" where N is a digit run or a
// spelled-out number word. A non-positive N is a validation error, not a
// fall-through to the next matcher.
func matchDuration(tokens []string) (*match, error) {
	for i := 0; i+1 < len(tokens); i++ {
		if normalizeToken(tokens[i]) != "через" {
			continue
		}

		var minutes, n int
		if raw := normalizeToken(tokens[i+1]); signedDigitsRe.MatchString(raw) {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidDuration, tokens[i+1])
			}
			minutes, n = v, 1
		} else {
			var ok bool
			minutes, n, ok = spelledNumberAt(tokens, i+1)
			if !ok {
				continue
			}
		}

		consumed := []int{i}
		for j := 0; j < n; j++ {
			consumed = append(consumed, i+1+j)
		}

		// Optional minute-unit suffix
		if next := i + 1 + n; next < len(tokens) && isMinuteWord(tokens[next]) {
			consumed = append(consumed, next)
		}

		if minutes <= 0 {
			return nil, fmt.Errorf("%w: %d minutes", ErrInvalidDuration, minutes)
		}
		return &match{minutes: minutes, relative: true, consumed: consumed}, nil
	}
	return nil, nil
}

func validateTimeOfDay(hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("%w: %02d:%02d", ErrInvalidTime, hour, minute)
	}
	return nil
}

// fillerWords are imperative and politeness words stripped from the body
// alongside the recognized time tokens.
var fillerWords = map[string]struct{}{
	"напомни":    {},
	"напомните":  {},
	"пожалуйста": {},
	"мне":        {},
	"сделай":     {},
	"поставь":    {},
	"создай":     {},
}

// buildBody reassembles the reminder text from the tokens the matcher did
// not consume, dropping filler words. An empty result falls back to
// DefaultBody so the stored text is never empty.
func buildBody(tokens []string, consumed []int) string {
	skip := make(map[int]struct{}, len(consumed))
	for _, i := range consumed {
		skip[i] = struct{}{}
	}

	kept := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if _, ok := skip[i]; ok {
			continue
		}
		if _, ok := fillerWords[normalizeToken(tok)]; ok {
			continue
		}
		kept = append(kept, tok)
	}

	body := strings.TrimSpace(strings.Join(kept, " "))
	if body == "" {
		return DefaultBody
	}
	return body
}

func normalizeToken(tok string) string {
	return strings.ToLower(strings.Trim(tok, ".,!?;:()\"'«»"))
}

func isPreposition(tok string) bool {
	t := normalizeToken(tok)
	return t == "в" || t == "во"
}

func isHourWord(tok string) bool {
	switch normalizeToken(tok) {
	case "час", "часа", "часов":
		return true
	}
	return false
}

func isMinuteWord(tok string) bool {
	switch normalizeToken(tok) {
	case "минут", "минуту", "минуты", "мин":
		return true
	}
	return false
}

func digitValue(tok string) (int, bool) {
	t := normalizeToken(tok)
	if len(t) == 0 || len(t) > 2 {
		return 0, false
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, false
	}
	return v, true
}
