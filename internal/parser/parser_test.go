package parser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ashmarin/remindbot/internal/parser"
)

// refLoc is a fixed UTC+3 zone matching Europe/Moscow without depending on
// the host's tzdata.
var refLoc = time.FixedZone("MSK", 3*60*60)

// refNow is 2025-06-10 10:00:00 in refLoc.
var refNow = time.Date(2025, 6, 10, 10, 0, 0, 0, refLoc)

func TestParse_TimeOfDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantBody  string
		wantRunAt time.Time
	}{
		{
			name:      "colon clock time later today",
			input:     "напомни в 15:30 забрать посылку",
			wantBody:  "забрать посылку",
			wantRunAt: time.Date(2025, 6, 10, 15, 30, 0, 0, refLoc),
		},
		{
			name:      "dot clock time",
			input:     "в 18.45 встреча",
			wantBody:  "встреча",
			wantRunAt: time.Date(2025, 6, 10, 18, 45, 0, 0, refLoc),
		},
		{
			name:      "clock time without preposition",
			input:     "15:30 забрать посылку",
			wantBody:  "забрать посылку",
			wantRunAt: time.Date(2025, 6, 10, 15, 30, 0, 0, refLoc),
		},
		{
			name:      "space separated hour and minute",
			input:     "в 16 20 позвонить маме",
			wantBody:  "позвонить маме",
			wantRunAt: time.Date(2025, 6, 10, 16, 20, 0, 0, refLoc),
		},
		{
			name:      "bare hour defaults to zero minutes",
			input:     "напомни в 17 полить цветы",
			wantBody:  "полить цветы",
			wantRunAt: time.Date(2025, 6, 10, 17, 0, 0, 0, refLoc),
		},
		{
			name:      "past hour rolls to tomorrow",
			input:     "в 9 купить молоко",
			wantBody:  "купить молоко",
			wantRunAt: time.Date(2025, 6, 11, 9, 0, 0, 0, refLoc),
		},
		{
			name:      "exact current time rolls to tomorrow",
			input:     "в 10:00 разминка",
			wantBody:  "разминка",
			wantRunAt: time.Date(2025, 6, 11, 10, 0, 0, 0, refLoc),
		},
		{
			name:      "spoken hour with preposition",
			input:     "напомни в пять купить хлеб",
			wantBody:  "купить хлеб",
			wantRunAt: time.Date(2025, 6, 11, 5, 0, 0, 0, refLoc),
		},
		{
			name:      "spoken hour with unit suffix",
			input:     "одиннадцать часов совещание",
			wantBody:  "совещание",
			wantRunAt: time.Date(2025, 6, 10, 11, 0, 0, 0, refLoc),
		},
		{
			name:      "compound spoken number",
			input:     "в двадцать три часа выключить духовку",
			wantBody:  "выключить духовку",
			wantRunAt: time.Date(2025, 6, 10, 23, 0, 0, 0, refLoc),
		},
		{
			name:      "noon literal",
			input:     "напомни в полдень обед",
			wantBody:  "обед",
			wantRunAt: time.Date(2025, 6, 10, 12, 0, 0, 0, refLoc),
		},
		{
			name:      "midnight literal rolls forward",
			input:     "в полночь проверить бекап",
			wantBody:  "проверить бекап",
			wantRunAt: time.Date(2025, 6, 11, 0, 0, 0, 0, refLoc),
		},
	}

	p := parser.New(refLoc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.Parse(tt.input, refNow)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Parse(%q) body = %q, want %q", tt.input, got.Body, tt.wantBody)
			}
			if !got.RunAt.Equal(tt.wantRunAt) {
				t.Errorf("Parse(%q) runAt = %v, want %v", tt.input, got.RunAt, tt.wantRunAt)
			}
		})
	}
}

func TestParse_Durations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantBody string
		wantIn   time.Duration
	}{
		{
			name:     "digits with unit",
			input:    "через 5 минут позвонить",
			wantBody: "позвонить",
			wantIn:   5 * time.Minute,
		},
		{
			name:     "digits without unit",
			input:    "через 90 размяться",
			wantBody: "размяться",
			wantIn:   90 * time.Minute,
		},
		{
			name:     "spelled number",
			input:    "напомни через десять минут чай",
			wantBody: "чай",
			wantIn:   10 * time.Minute,
		},
		{
			name:     "compound spelled number",
			input:    "через двадцать пять минут выйти",
			wantBody: "выйти",
			wantIn:   25 * time.Minute,
		},
		{
			name:     "short minute unit",
			input:    "через 3 мин проверить духовку",
			wantBody: "проверить духовку",
			wantIn:   3 * time.Minute,
		},
	}

	p := parser.New(refLoc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.Parse(tt.input, refNow)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Parse(%q) body = %q, want %q", tt.input, got.Body, tt.wantBody)
			}
			want := refNow.Add(tt.wantIn)
			if !got.RunAt.Equal(want) {
				t.Errorf("Parse(%q) runAt = %v, want %v", tt.input, got.RunAt, want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "no time expression",
			input:   "купить молоко завтра утром",
			wantErr: parser.ErrUnrecognized,
		},
		{
			name:    "empty input",
			input:   "   ",
			wantErr: parser.ErrUnrecognized,
		},
		{
			name:    "hour out of range",
			input:   "в 25:00 встреча",
			wantErr: parser.ErrInvalidTime,
		},
		{
			name:    "minute out of range",
			input:   "в 10:75 встреча",
			wantErr: parser.ErrInvalidTime,
		},
		{
			name:    "zero duration",
			input:   "через 0 минут чай",
			wantErr: parser.ErrInvalidDuration,
		},
		{
			name:    "negative duration",
			input:   "через -5 минут чай",
			wantErr: parser.ErrInvalidDuration,
		},
	}

	p := parser.New(refLoc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := p.Parse(tt.input, refNow)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestParse_BodyHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantBody string
	}{
		{
			name:     "filler words stripped",
			input:    "напомни мне пожалуйста в 15:00 сдать отчёт",
			wantBody: "сдать отчёт",
		},
		{
			name:     "empty body falls back to placeholder",
			input:    "напомни в 15:00",
			wantBody: parser.DefaultBody,
		},
		{
			name:     "duration with only filler words",
			input:    "напомни мне через 5 минут",
			wantBody: parser.DefaultBody,
		},
		{
			name:     "token order preserved around time expression",
			input:    "забрать в 15:00 посылку с почты",
			wantBody: "забрать посылку с почты",
		},
	}

	p := parser.New(refLoc)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := p.Parse(tt.input, refNow)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got.Body != tt.wantBody {
				t.Errorf("Parse(%q) body = %q, want %q", tt.input, got.Body, tt.wantBody)
			}
		})
	}
}
