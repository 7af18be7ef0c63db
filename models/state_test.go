package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyMergesDelta(t *testing.T) {
	s := NewWorkflowState(&UploadedFile{Name: "h.csv"})
	p := &Portfolio{Stocks: []Holding{{Ticker: "TCS"}}}

	s.Apply(&StateDelta{Portfolio: p, Errors: []string{"one"}})
	s.Apply(&StateDelta{Errors: []string{"two"}})
	s.Apply(nil)

	assert.Same(t, p, s.Portfolio)
	assert.Equal(t, []string{"one", "two"}, s.Errors)
	assert.False(t, s.Failed())
}

func TestApplyKeepsFirstFatal(t *testing.T) {
	s := NewWorkflowState(nil)
	s.Apply(&StateDelta{Fatal: "first"})
	s.Apply(&StateDelta{Fatal: "second"})
	assert.True(t, s.Failed())
	assert.Equal(t, "first", s.Fatal)
}

func TestHoldingDefaults(t *testing.T) {
	h := Holding{}
	assert.Equal(t, 1.0, h.BetaOrDefault())
	assert.Equal(t, "", h.SectorName())

	h.Beta = Float(1.4)
	h.Fundamentals = &Fundamentals{Sector: "Energy"}
	assert.Equal(t, 1.4, h.BetaOrDefault())
	assert.Equal(t, "Energy", h.SectorName())
}

func TestFundamentalsIsEmpty(t *testing.T) {
	var f *Fundamentals
	assert.True(t, f.IsEmpty())
	assert.True(t, (&Fundamentals{}).IsEmpty())
	assert.False(t, (&Fundamentals{PERatio: Float(12)}).IsEmpty())
	assert.True(t, (&Technicals{}).IsEmpty())
	assert.False(t, (&Technicals{RSI14: Float(55)}).IsEmpty())
}
