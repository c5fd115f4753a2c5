package reconcile

import (
	"testing"

	"github.com/five82/tickerboard/internal/market"
)

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		v    float64
		want Zone
	}{
		{19.999, Oversold},
		{20, Oversold},
		{20.001, Neutral},
		{79.999, Neutral},
		{80, Overbought},
		{-5, Oversold},
		{120, Overbought},
	}
	for _, tt := range tests {
		if got := Classify(tt.v); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.v, got, tt.want)
		}
	}
}

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		inst market.Instrument
		v    float64
		want string
	}{
		{market.Primary, 65000.5, "65,000.50"},
		{market.Primary, 1234567.891, "1,234,567.89"},
		{market.Primary, 12.3, "12.30"},
		{market.Secondary, 0.2663, "0.266300"},
		{market.Secondary, 1.5, "1.500000"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.inst, tt.v); got != tt.want {
			t.Errorf("FormatPrice(%s, %v) = %q, want %q", tt.inst, tt.v, got, tt.want)
		}
	}
}

func TestFormatChange(t *testing.T) {
	tests := []struct {
		v         float64
		wantText  string
		wantClass string
	}{
		{1.23, "+1.23%", ClassPositive},
		{0, "0.00%", ClassPositive},
		{-0.4, "-0.40%", ClassNegative},
	}
	for _, tt := range tests {
		text, class := FormatChange(tt.v)
		if text != tt.wantText || class != tt.wantClass {
			t.Errorf("FormatChange(%v) = %q/%q, want %q/%q", tt.v, text, class, tt.wantText, tt.wantClass)
		}
	}
}

func TestFormatStats(t *testing.T) {
	if got := FormatAmplitude(3.45678); got != "3.457%" {
		t.Errorf("FormatAmplitude = %q, want 3.457%%", got)
	}
	if got := FormatGrowth(-1.2); got != "-1.200%" {
		t.Errorf("FormatGrowth = %q, want -1.200%%", got)
	}
	if got := FormatGrowth(0.5); got != "+0.500%" {
		t.Errorf("FormatGrowth = %q, want +0.500%%", got)
	}
	if got := FormatBand(market.Primary, 66000); got != "$66,000.00" {
		t.Errorf("FormatBand = %q, want $66,000.00", got)
	}
}

func TestFormatSignals(t *testing.T) {
	if got := FormatSignals(market.SignalSet{}); got != "none" {
		t.Errorf("FormatSignals(empty) = %q, want none", got)
	}
	set := market.SignalSet{List: []market.Signal{{ID: 3, Type: market.Buy}, {Type: market.Sell}}}
	if got := FormatSignals(set); got != "BUY #3, SELL #2" {
		t.Errorf("FormatSignals = %q, want BUY #3, SELL #2", got)
	}
}
