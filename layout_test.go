// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLAParams(t *testing.T) {
	p := DefaultLAParams()
	assert.Equal(t, 0.5, p.LineOverlap)
	assert.Equal(t, 2.0, p.CharMargin)
	assert.Equal(t, 0.5, p.LineMargin)
	assert.Equal(t, 0.1, p.WordMargin)
	assert.Equal(t, 0.5, p.BoxesFlow)
	assert.False(t, p.DetectVertical)
	assert.Equal(t, 0, p.ParagraphIndent)
}

func TestBBoxUnionAndDims(t *testing.T) {
	a := bbox{0, 0, 10, 10}
	b := bbox{5, 5, 20, 20}
	u := union(a, b)
	assert.Equal(t, bbox{0, 0, 20, 20}, u)
	assert.Equal(t, 20.0, u.width())
	assert.Equal(t, 20.0, u.height())
}

func TestVOverlapAndHOverlap(t *testing.T) {
	a := bbox{0, 0, 10, 10}
	b := bbox{0, 5, 10, 15}
	assert.InDelta(t, 0.5, voverlap(a, b), 0.001)
	assert.Equal(t, 1.0, hoverlap(a, b))

	c := bbox{0, 20, 10, 30}
	assert.Equal(t, 0.0, voverlap(a, c))
}

func TestGroupLinesMergesAdjacentChars(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "H"},
		{Font: "F1", FontSize: 10, X: 5, Y: 100, W: 5, S: "i"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 1)
	assert.Equal(t, "Hi\n", lines[0].Text())
}

func TestGroupLinesSplitsOnLargeGap(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "A"},
		{Font: "F1", FontSize: 10, X: 500, Y: 100, W: 5, S: "B"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 2)
	assert.Equal(t, "A\n", lines[0].Text())
	assert.Equal(t, "B\n", lines[1].Text())
}

func TestGroupLinesSplitsOnDifferentRow(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "A"},
		{Font: "F1", FontSize: 10, X: 5, Y: 40, W: 5, S: "B"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 2)
}

func TestGroupLinesSkipsEmptyChars(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: ""},
		{Font: "F1", FontSize: 10, X: 5, Y: 100, W: 5, S: "x"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 1)
	assert.Equal(t, "x\n", lines[0].Text())
}

func TestPlaneAddAndFind(t *testing.T) {
	pl := newPlane(50)
	idx := pl.add(bbox{0, 0, 10, 10})
	found := pl.find(bbox{5, 5, 15, 15})
	assert.Contains(t, found, idx)
}

func TestPlaneFindAcrossCells(t *testing.T) {
	pl := newPlane(50)
	pl.add(bbox{0, 0, 10, 10})
	far := pl.add(bbox{1000, 1000, 1010, 1010})
	found := pl.find(bbox{0, 0, 10, 10})
	assert.NotContains(t, found, far)
}

func twoLineChars() []Text {
	return []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "Hi"},
		{Font: "F1", FontSize: 10, X: 0, Y: 88, W: 5, S: "Lo"},
	}
}

func TestGroupTextBoxesMergesCloseLines(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "A"},
		{Font: "F1", FontSize: 10, X: 0, Y: 87, W: 5, S: "B"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 2)
	boxes := GroupTextBoxes(lines, DefaultLAParams())
	require.Len(t, boxes, 1)
	assert.Len(t, boxes[0].Lines, 2)
}

func TestGroupTextBoxesSeparatesFarLines(t *testing.T) {
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 0, Y: 500, W: 5, S: "A"},
		{Font: "F1", FontSize: 10, X: 0, Y: 10, W: 5, S: "B"},
	}
	lines := GroupLines(chars, DefaultLAParams())
	require.Len(t, lines, 2)
	boxes := GroupTextBoxes(lines, DefaultLAParams())
	assert.Len(t, boxes, 2)
}

func TestGroupTextBoxesEmpty(t *testing.T) {
	assert.Nil(t, GroupTextBoxes(nil, DefaultLAParams()))
}

func TestIsNeighborLine(t *testing.T) {
	a := bbox{0, 90, 10, 100}
	b := bbox{0, 78, 10, 88}
	params := DefaultLAParams()
	assert.True(t, isNeighborLine(a, b, params))

	far := bbox{0, 0, 10, 5}
	assert.False(t, isNeighborLine(a, far, params))
}

func makeLines(n int, indentEvery int, indent float64) []Line {
	lines := make([]Line, n)
	for i := 0; i < n; i++ {
		x0 := 0.0
		if indentEvery > 0 && i%indentEvery == 0 {
			x0 = indent
		}
		lines[i] = Line{Box: bbox{x0min(x0), float64(100 - i*10), x0min(x0) + 50, float64(110 - i*10)}}
	}
	return lines
}

func x0min(x float64) float64 { return x }

func TestSplitParagraphsShortBoxNotSplit(t *testing.T) {
	lines := makeLines(3, 0, 0)
	out := SplitParagraphs(lines, DefaultLAParams())
	assert.Len(t, out, 1)
}

func TestSplitParagraphsLongBoxSplitsOnIndent(t *testing.T) {
	lines := makeLines(8, 3, 20)
	params := DefaultLAParams()
	params.ParagraphIndent = 6
	out := SplitParagraphs(lines, params)
	assert.Greater(t, len(out), 1)
}

func TestIndexAssignerSequential(t *testing.T) {
	ia := &IndexAssigner{}
	first := ia.Assign(3)
	assert.Equal(t, []int{0, 1, 2}, first)
	second := ia.Assign(2)
	assert.Equal(t, []int{3, 4}, second)
}

// TestLayoutWordMarginInsertsSpace exercises the Stage 1 scenario this
// package is built to support: a one-line "Hello World" run typeset as
// individual glyphs wide enough apart to read as two words, which
// after layout analysis must come back as the single line "Hello
// World\n" -- word_margin driving a synthetic space, and the line's
// mandatory trailing newline.
func TestLayoutWordMarginInsertsSpace(t *testing.T) {
	var chars []Text
	x := 0.0
	for _, r := range "Hello" {
		chars = append(chars, Text{Font: "F1", FontSize: 12, X: x, Y: 720, W: 6, S: string(r)})
		x += 6
	}
	// A gap wider than word_margin*width before "World".
	x += 6
	for _, r := range "World" {
		chars = append(chars, Text{Font: "F1", FontSize: 12, X: x, Y: 720, W: 6, S: string(r)})
		x += 6
	}
	content := Content{Text: chars}
	boxes := Layout(content, DefaultLAParams())
	require.Len(t, boxes, 1)
	require.Len(t, boxes[0].Lines, 1)
	assert.Equal(t, "Hello World\n", boxes[0].Lines[0].Text())
}

func TestAnalyzeLineHeuristicWordMarginWidensAfterFirstSpace(t *testing.T) {
	params := DefaultLAParams()
	params.HeuristicWordMargin = true
	chars := []Text{
		{FontSize: 10, X: 0, Y: 0, W: 5, S: "A"},
		{FontSize: 10, X: 5, Y: 0, W: 5, S: " "},
		{FontSize: 10, X: 10.6, Y: 0, W: 5, S: "B"}, // gap 0.6 > 0.1*5 but < 0.5*5
	}
	out := analyzeLine(chars, false, params)
	var sb strings.Builder
	for _, c := range out {
		sb.WriteString(c.S)
	}
	assert.Equal(t, "A B", sb.String())
}

func TestGroupLinesDetectVertical(t *testing.T) {
	params := DefaultLAParams()
	params.DetectVertical = true
	chars := []Text{
		{Font: "F1", FontSize: 10, X: 100, Y: 100, W: 10, S: "A"},
		{Font: "F1", FontSize: 10, X: 100, Y: 89, W: 10, S: "B"},
	}
	lines := GroupLines(chars, params)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Vertical)
}

func TestBoxDistanceAndIntersect(t *testing.T) {
	a := bbox{0, 0, 10, 10}
	b := bbox{10, 0, 20, 10}
	ta, tb := &TextBox{Box: a}, &TextBox{Box: b}
	assert.Equal(t, 0.0, boxDistance(ta, tb))
	assert.False(t, rectsIntersect(a, b))

	c := bbox{5, 0, 15, 10}
	assert.True(t, rectsIntersect(a, c))
}

func TestGroupBoxesMergesIntoGroup(t *testing.T) {
	boxes := []TextBox{
		{Box: bbox{0, 0, 10, 10}},
		{Box: bbox{12, 0, 22, 10}},
	}
	items := groupBoxes(boxes)
	require.Len(t, items, 1)
	g, ok := items[0].(*Group)
	require.True(t, ok)
	assert.False(t, g.TBRL)
	assert.Len(t, g.Members, 2)
}

func TestGroupBoxesSkipsAboveCostGuard(t *testing.T) {
	boxes := make([]TextBox, maxGroupableBoxes+1)
	for i := range boxes {
		boxes[i] = TextBox{Box: bbox{float64(i), 0, float64(i) + 1, 1}}
	}
	items := groupBoxes(boxes)
	assert.Len(t, items, len(boxes))
}

func TestFlowKeyLRTBvsTBRL(t *testing.T) {
	lrtb := &TextBox{Box: bbox{0, 0, 10, 10}}
	tbrl := &TextBox{Box: bbox{0, 0, 10, 10}, Vertical: true}
	assert.NotEqual(t, flowKey(lrtb, 0.5), flowKey(tbrl, 0.5))
}

func TestLayoutEndToEnd(t *testing.T) {
	content := Content{
		Text: []Text{
			{Font: "F1", FontSize: 10, X: 0, Y: 100, W: 5, S: "H"},
			{Font: "F1", FontSize: 10, X: 5, Y: 100, W: 5, S: "i"},
			{Font: "F1", FontSize: 10, X: 0, Y: 10, W: 5, S: "X"},
		},
	}
	boxes := Layout(content, DefaultLAParams())
	require.Len(t, boxes, 2)
}
