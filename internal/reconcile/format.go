package reconcile

import (
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/five82/tickerboard/internal/market"
)

// Zone is the oscillator classification of a single value.
type Zone int

const (
	Neutral Zone = iota
	Oversold
	Overbought
)

const (
	oversoldLevel   = 20
	overboughtLevel = 80
)

func (z Zone) String() string {
	switch z {
	case Oversold:
		return "oversold"
	case Overbought:
		return "overbought"
	default:
		return "neutral"
	}
}

// Classify bands an oscillator value: at or below 20 is oversold, at or
// above 80 is overbought.
func Classify(v float64) Zone {
	switch {
	case v <= oversoldLevel:
		return Oversold
	case v >= overboughtLevel:
		return Overbought
	default:
		return Neutral
	}
}

// Display classes passed to the sink.
const (
	ClassPositive     = "positive"
	ClassNegative     = "negative"
	classIndicator    = "indicator-value"
	classCondition    = "condition-status"
	classSatisfied    = "satisfied"
	classNotSatisfied = "not-satisfied"
)

var printer = message.NewPrinter(language.English)

// FormatPrice renders a price the way the board shows it: the primary
// instrument grouped with two decimals, the secondary with six.
func FormatPrice(inst market.Instrument, v float64) string {
	if inst == market.Secondary {
		return strconv.FormatFloat(v, 'f', 6, 64)
	}
	return printer.Sprintf("%.2f", v)
}

// FormatChange renders a percentage change and its class.
func FormatChange(v float64) (text, class string) {
	class = ClassPositive
	if v < 0 {
		class = ClassNegative
	}
	return signPrefix(v) + strconv.FormatFloat(v, 'f', 2, 64) + "%", class
}

// FormatAmplitude renders the 24h amplitude.
func FormatAmplitude(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64) + "%"
}

// FormatGrowth renders the 24h growth with an explicit sign.
func FormatGrowth(v float64) string {
	return signPrefix(v) + strconv.FormatFloat(v, 'f', 3, 64) + "%"
}

// FormatBand renders a band line as a dollar price.
func FormatBand(inst market.Instrument, v float64) string {
	return "$" + FormatPrice(inst, v)
}

// FormatOscillator renders an oscillator value and its classes.
func FormatOscillator(v float64) (text, classes string) {
	return strconv.FormatFloat(v, 'f', 2, 64), classIndicator + " " + Classify(v).String()
}

// FormatCondition renders the conditions-satisfied flag and its classes.
func FormatCondition(ok bool) (text, classes string) {
	if ok {
		return "Satisfied", classCondition + " " + classSatisfied
	}
	return "Not satisfied", classCondition + " " + classNotSatisfied
}

// FormatSignals renders the signal list as "BUY #3, SELL #7", or "none".
func FormatSignals(set market.SignalSet) string {
	if len(set.List) == 0 {
		return "none"
	}
	labels := make([]string, len(set.List))
	for i, sig := range set.List {
		labels[i] = sig.Label(i + 1)
	}
	return strings.Join(labels, ", ")
}

func signPrefix(v float64) string {
	if v > 0 {
		return "+"
	}
	return ""
}
