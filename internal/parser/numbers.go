package parser

// Russian number-word vocabulary shared by the spoken-time and duration
// matchers. Compound values are formed as tens + unit (e.g. "двадцать пять"),
// which keeps the range within [1, 59].

var numberUnits = map[string]int{
	"один":   1,
	"одна":   1,
	"одну":   1,
	"два":    2,
	"две":    2,
	"три":    3,
	"четыре": 4,
	"пять":   5,
	"шесть":  6,
	"семь":   7,
	"восемь": 8,
	"девять": 9,
}

var numberTeens = map[string]int{
	"десять":       10,
	"одиннадцать":  11,
	"двенадцать":   12,
	"тринадцать":   13,
	"четырнадцать": 14,
	"пятнадцать":   15,
	"шестнадцать":  16,
	"семнадцать":   17,
	"восемнадцать": 18,
	"девятнадцать": 19,
}

var numberTens = map[string]int{
	"двадцать":  20,
	"тридцать":  30,
	"сорок":     40,
	"пятьдесят": 50,
}

// spelledNumberAt reads a spelled-out number starting at tokens[i].
// It returns the value and the count of tokens consumed (1 or 2),
// or ok=false when tokens[i] does not start a number word.
func spelledNumberAt(tokens []string, i int) (value, consumed int, ok bool) {
	word := normalizeToken(tokens[i])

	if v, found := numberUnits[word]; found {
		return v, 1, true
	}
	if v, found := numberTeens[word]; found {
		return v, 1, true
	}
	v, found := numberTens[word]
	if !found {
		return 0, 0, false
	}

	// Tens may be followed by a unit to form a compound number
	if i+1 < len(tokens) {
		if u, isUnit := numberUnits[normalizeToken(tokens[i+1])]; isUnit {
			return v + u, 2, true
		}
	}
	return v, 1, true
}
