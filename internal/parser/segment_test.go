package parser

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegmentsJoinsContinuationLines(t *testing.T) {
	text := "**Weekly drop**\n\n1. [S01-E01] Demo\n`https://x/1`\n2. [S01-E02] Demo https://x/2\n\n"
	got := slices.Collect(Segments(text))
	assert.Equal(t, []string{
		"Weekly drop",
		"1. [S01-E01] Demo https://x/1",
		"2. [S01-E02] Demo https://x/2",
	}, got)
}

func TestSegmentsRestartable(t *testing.T) {
	seq := Segments("1. a\n2. b")
	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, 2, first)
	assert.Equal(t, first, second)
}

func TestSegmentsEarlyStop(t *testing.T) {
	var seen []string
	for entry := range Segments("1. a\n2. b\n3. c") {
		seen = append(seen, entry)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1. a", "2. b"}, seen)
}
