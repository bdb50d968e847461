package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineStatsIdentical(t *testing.T) {
	e := NewEngine()
	s := e.LineStats("a\nb\n", "a\nb\n")
	assert.Equal(t, Stats{}, s)
}

func TestLineStatsPureAddition(t *testing.T) {
	e := NewEngine()
	s := e.LineStats("", "one\ntwo\nthree\n")
	assert.Equal(t, 3, s.Added)
	assert.Equal(t, 0, s.Removed)
}

func TestLineStatsPureRemoval(t *testing.T) {
	e := NewEngine()
	s := e.LineStats("one\ntwo\n", "")
	assert.Equal(t, 0, s.Added)
	assert.Equal(t, 2, s.Removed)
}

func TestLineStatsModifiedLine(t *testing.T) {
	e := NewEngine()
	s := e.LineStats("keep\nold line\nkeep\n", "keep\nnew line\nkeep\n")
	assert.Equal(t, 1, s.Added)
	assert.Equal(t, 1, s.Removed)
}

func TestLineStatsNoTrailingNewline(t *testing.T) {
	e := NewEngine()
	s := e.LineStats("a\n", "a\nb")
	assert.Equal(t, 1, s.Added)
	assert.Equal(t, 0, s.Removed)
}
