// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package xtract

import (
	"sort"
	"strings"
)

// LAParams configures the layout analyzer, mirroring pdfminer's
// LAParams: the thresholds that decide when adjacent characters belong
// to the same line, when adjacent lines belong to the same text box,
// and when a run of short lines should be split into paragraphs.
type LAParams struct {
	LineOverlap     float64 `validate:"gte=0,lte=1"`
	CharMargin      float64 `validate:"gte=0"`
	LineMargin      float64 `validate:"gte=0"`
	WordMargin      float64 `validate:"gte=0"`
	BoxesFlow       float64 `validate:"gte=-1,lte=1"`
	DetectVertical  bool
	ParagraphIndent int `validate:"gte=0"`
	// AllTexts, when set, makes figure/image content participate in
	// box and group analysis alongside text; this build only ever feeds
	// Layout character content, so it is a no-op placeholder kept for
	// parity with pdfminer's LAParams until Figure/Image are wired in.
	AllTexts bool
	// HeuristicWordMargin widens WordMargin fivefold once a line already
	// contains a space (an explicit one or a synthetic one analyzeLine
	// inserted), on the theory that a line
	// that already breaks into words rarely needs another break as
	// tightly spaced as the first.
	HeuristicWordMargin bool
}

// DefaultLAParams returns the same defaults pdfminer ships: loose
// enough to merge justified body text into paragraphs without also
// merging unrelated columns.
func DefaultLAParams() LAParams {
	return LAParams{
		LineOverlap:         0.5,
		CharMargin:          2.0,
		LineMargin:          0.5,
		WordMargin:          0.1,
		BoxesFlow:           0.5,
		DetectVertical:      false,
		ParagraphIndent:     0,
		AllTexts:            false,
		HeuristicWordMargin: false,
	}
}

type bbox struct {
	X0, Y0, X1, Y1 float64
}

func charBBox(t Text) bbox {
	h := t.FontSize
	if h <= 0 {
		h = 1
	}
	w := t.W
	if w <= 0 {
		w = h / 2
	}
	return bbox{t.X, t.Y, t.X + w, t.Y + h}
}

func union(a, b bbox) bbox {
	return bbox{
		X0: min64(a.X0, b.X0), Y0: min64(a.Y0, b.Y0),
		X1: max64(a.X1, b.X1), Y1: max64(a.Y1, b.Y1),
	}
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func (a bbox) height() float64 { return a.Y1 - a.Y0 }
func (a bbox) width() float64  { return a.X1 - a.X0 }

// voverlap reports the fraction of the shorter box's height that the
// two boxes share vertically — pdfminer's is_voverlap/height ratio,
// used to decide whether two characters sit on the same horizontal
// line.
func voverlap(a, b bbox) float64 {
	lo := max64(a.Y0, b.Y0)
	hi := min64(a.Y1, b.Y1)
	if hi <= lo {
		return 0
	}
	h := min64(a.height(), b.height())
	if h <= 0 {
		return 0
	}
	return (hi - lo) / h
}

func hoverlap(a, b bbox) float64 {
	lo := max64(a.X0, b.X0)
	hi := min64(a.X1, b.X1)
	if hi <= lo {
		return 0
	}
	w := min64(a.width(), b.width())
	if w <= 0 {
		return 0
	}
	return (hi - lo) / w
}

// Line is one visually contiguous run of characters: a text line in
// the pdfminer sense (LTTextLineHorizontal/LTTextLineVertical), built
// by coalescing adjacent characters from Page.Content within
// CharMargin/LineOverlap. Vertical is true for an LTTextLineVertical
// (only possible when LAParams.DetectVertical is set).
type Line struct {
	Chars    []Text
	Box      bbox
	Vertical bool
}

// Text concatenates the line's characters in drawing order, with a
// trailing "\n" marker the way pdfminer's LTTextLine.get_text() always
// appends one. Analyze (called while the line is being built) has
// already inserted synthetic space characters at word boundaries, so
// no further spacing decisions happen here.
func (l Line) Text() string {
	var sb strings.Builder
	for _, c := range l.Chars {
		sb.WriteString(c.S)
	}
	sb.WriteString("\n")
	return sb.String()
}

// analyzeLine inserts a synthetic space character between two
// adjacent characters whenever the gap between them exceeds
// word_margin times the next character's size along the line's flow
// axis (width for a horizontal line, height for a vertical one) — the
// same heuristic pdfminer's LTTextLineHorizontal/Vertical.find_neighbors
// and word_margin splitting use. When HeuristicWordMargin is set and
// the line already contains a space (explicit or inserted), the margin is widened
// fivefold to avoid over-splitting lines with loose default spacing.
func analyzeLine(chars []Text, vertical bool, params LAParams) []Text {
	if len(chars) == 0 {
		return chars
	}
	out := make([]Text, 0, len(chars)+1)
	out = append(out, chars[0])
	hadSpace := chars[0].S == " "
	for i := 1; i < len(chars); i++ {
		prev := chars[i-1]
		next := chars[i]
		pb := charBBox(prev)
		nb := charBBox(next)

		margin := params.WordMargin
		if params.HeuristicWordMargin && hadSpace {
			margin *= 5
		}

		var gap, dim float64
		if vertical {
			gap = pb.Y0 - nb.Y1
			dim = nb.height()
		} else {
			gap = nb.X0 - pb.X1
			dim = nb.width()
		}
		if dim <= 0 {
			dim = 1
		}
		if gap > margin*dim {
			out = append(out, Text{S: " "})
			hadSpace = true
		}
		if next.S == " " {
			hadSpace = true
		}
		out = append(out, next)
	}
	return out
}

// TextBox is a group of Lines judged to form one paragraph-like block
// (LTTextBoxHorizontal), plus the split-out Paragraphs when the block
// is tall enough and consistently indented for ParagraphSplit to find
// a break.
type TextBox struct {
	Lines      []Line
	Box        bbox
	Paragraphs [][]Line
	// Vertical marks a VerticalTextBox (LTTextBoxVertical): a box whose
	// member lines all read top-to-bottom. A HorizontalTextBox has it
	// false.
	Vertical bool
}

// plane is a uniform spatial grid index, ported from pdfminer's
// layout.Plane: objects are filed into every grid cell their bbox
// touches (default cell size 50pt, matching the original), so a
// proximity query only has to scan the handful of objects sharing a
// cell instead of the whole page.
type plane struct {
	gridsize float64
	grid     map[[2]int][]int
	boxes    []bbox
}

func newPlane(gridsize float64) *plane {
	if gridsize <= 0 {
		gridsize = 50
	}
	return &plane{gridsize: gridsize, grid: make(map[[2]int][]int)}
}

func (p *plane) cell(x, y float64) [2]int {
	return [2]int{int(x / p.gridsize), int(y / p.gridsize)}
}

func (p *plane) add(b bbox) int {
	idx := len(p.boxes)
	p.boxes = append(p.boxes, b)
	gx0, gy0 := p.cell(b.X0, b.Y0)[0], p.cell(b.X0, b.Y0)[1]
	gx1, gy1 := p.cell(b.X1, b.Y1)[0], p.cell(b.X1, b.Y1)[1]
	for gx := gx0; gx <= gx1; gx++ {
		for gy := gy0; gy <= gy1; gy++ {
			key := [2]int{gx, gy}
			p.grid[key] = append(p.grid[key], idx)
		}
	}
	return idx
}

// find returns the (deduplicated) indices of every object whose bbox
// touches one of the same grid cells as b — a superset of the objects
// actually overlapping b, same as the original's Plane.find.
func (p *plane) find(b bbox) []int {
	gx0, gy0 := p.cell(b.X0, b.Y0)[0], p.cell(b.X0, b.Y0)[1]
	gx1, gy1 := p.cell(b.X1, b.Y1)[0], p.cell(b.X1, b.Y1)[1]
	seen := make(map[int]bool)
	var out []int
	for gx := gx0; gx <= gx1; gx++ {
		for gy := gy0; gy <= gy1; gy++ {
			for _, idx := range p.grid[[2]int{gx, gy}] {
				if !seen[idx] {
					seen[idx] = true
					out = append(out, idx)
				}
			}
		}
	}
	return out
}

// GroupLines coalesces a page's characters (in the drawing order
// Page.Content already produced) into text lines, following pdfminer's
// two coalescing tests: horizontal (characters vertically overlap by
// at least LineOverlap, and the horizontal gap to the previous
// character is no more than CharMargin times its width) and, only
// when DetectVertical is set, vertical (characters horizontally
// overlap by at least LineOverlap, and the vertical gap is no more
// than CharMargin times the character's height). When both tests pass
// for the same character, the line already open wins the tie; a fresh
// line otherwise defaults to horizontal. This streaming pass (rather
// than pdfminer's full Plane-indexed adjacency search across all
// characters in arbitrary order) relies on content streams drawing a
// line's glyphs contiguously, true of the overwhelming majority of
// producers, and is documented as a scope decision.
func GroupLines(chars []Text, params LAParams) []Line {
	var lines []Line
	var cur []Text
	var curBox bbox
	var curVertical bool

	flush := func() {
		if len(cur) == 0 {
			return
		}
		analyzed := analyzeLine(cur, curVertical, params)
		lines = append(lines, Line{Chars: analyzed, Box: curBox, Vertical: curVertical})
		cur = nil
	}

	for _, c := range chars {
		if c.S == "" {
			continue
		}
		b := charBBox(c)
		if len(cur) == 0 {
			cur = []Text{c}
			curBox = b
			curVertical = false
			continue
		}
		prev := cur[len(cur)-1]
		pb := charBBox(prev)

		hMargin := params.CharMargin * charWidthOf(prev)
		hGap := b.X0 - pb.X1
		horizOK := voverlap(curBox, b) >= params.LineOverlap && hGap <= hMargin

		vertOK := false
		if params.DetectVertical {
			vMargin := params.CharMargin * charHeightOf(prev)
			vGap := pb.Y0 - b.Y1
			vertOK = hoverlap(curBox, b) >= params.LineOverlap && vGap <= vMargin
		}

		switch {
		case curVertical && vertOK:
			cur = append(cur, c)
			curBox = union(curBox, b)
			continue
		case curVertical && !vertOK && horizOK:
			// the open vertical line no longer accepts c; let it close
			// below and start a fresh horizontal line with c.
		case !curVertical && horizOK:
			cur = append(cur, c)
			curBox = union(curBox, b)
			continue
		case !curVertical && !horizOK && vertOK && len(cur) == 1:
			// a single-character line hasn't committed to a direction
			// yet, so it may still become vertical.
			curVertical = true
			cur = append(cur, c)
			curBox = union(curBox, b)
			continue
		}
		flush()
		cur = []Text{c}
		curBox = b
		curVertical = false
	}
	flush()
	return lines
}

func charWidthOf(t Text) float64 {
	if t.W > 0 {
		return t.W
	}
	if t.FontSize > 0 {
		return t.FontSize / 2
	}
	return 1
}

func charHeightOf(t Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return 1
}

// GroupTextBoxes groups Lines into TextBoxes using the Plane spatial
// index: two lines merge into the same box when the vertical gap
// between them is at most LineMargin times the shorter line's height
// and their horizontal extents overlap at all (or the lines overlap
// vertically), loosely following pdfminer's
// get_textboxes/find_neighbors.
func GroupTextBoxes(lines []Line, params LAParams) []TextBox {
	if len(lines) == 0 {
		return nil
	}
	pl := newPlane(50)
	for _, l := range lines {
		pl.add(l.Box)
	}

	parent := make([]int, len(lines))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union2 := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}

	for i, l := range lines {
		h := l.Box.height()
		if h <= 0 {
			h = 1
		}
		pad := bbox{l.Box.X0 - 1, l.Box.Y0 - h*(1+params.LineMargin), l.Box.X1 + 1, l.Box.Y1 + h*(1+params.LineMargin)}
		for _, j := range pl.find(pad) {
			if j == i {
				continue
			}
			if lines[j].Vertical != l.Vertical {
				continue
			}
			if isNeighborLine(l.Box, lines[j].Box, params) {
				union2(i, j)
			}
		}
	}

	groups := make(map[int][]int)
	for i := range lines {
		r := find(i)
		groups[r] = append(groups[r], i)
	}
	var order []int
	for r := range groups {
		order = append(order, r)
	}
	sort.Ints(order)

	var boxes []TextBox
	for _, r := range order {
		members := groups[r]
		tb := TextBox{Vertical: lines[members[0]].Vertical}
		for _, idx := range members {
			tb.Lines = append(tb.Lines, lines[idx])
			if len(tb.Lines) == 1 {
				tb.Box = lines[idx].Box
			} else {
				tb.Box = union(tb.Box, lines[idx].Box)
			}
		}
		if tb.Vertical {
			// Stage 3: a vertical box reads right-to-left column by
			// column, so its lines sort by descending X1.
			sort.Slice(tb.Lines, func(i, j int) bool { return tb.Lines[i].Box.X1 > tb.Lines[j].Box.X1 })
		} else {
			// Stage 3: a horizontal box reads top-to-bottom with a
			// "snap to grid" quantization of y (half the box's average
			// line height) so near-equal baselines don't get reordered
			// by jitter, tie-broken left-to-right.
			avgH := tb.Box.height() / float64(maxInt(1, len(tb.Lines)))
			grid := avgH / 2
			if grid <= 0 {
				grid = 1
			}
			sort.Slice(tb.Lines, func(i, j int) bool {
				yi := snap(tb.Lines[i].Box.Y0, grid)
				yj := snap(tb.Lines[j].Box.Y0, grid)
				if yi != yj {
					return yi > yj
				}
				return tb.Lines[i].Box.X0 < tb.Lines[j].Box.X0
			})
		}
		tb.Paragraphs = SplitParagraphs(tb.Lines, params)
		boxes = append(boxes, tb)
	}
	sort.Slice(boxes, func(i, j int) bool {
		if boxes[i].Box.Y0 != boxes[j].Box.Y0 {
			return boxes[i].Box.Y0 > boxes[j].Box.Y0
		}
		return boxes[i].Box.X0 < boxes[j].Box.X0
	})
	return boxes
}

func snap(y, grid float64) float64 {
	if grid <= 0 {
		return y
	}
	return float64(int(y/grid)) * grid
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isNeighborLine(a, b bbox, params LAParams) bool {
	h := min64(a.height(), b.height())
	if h <= 0 {
		h = 1
	}
	vgap := max64(a.Y0, b.Y0) - min64(a.Y1, b.Y1)
	if vgap > h*params.LineMargin {
		return false
	}
	return hoverlap(a, b) > 0 || vgap <= 0
}

// SplitParagraphs implements pdfminer's paragraph heuristic: a text
// box is only worth splitting when it has more than five lines — below
// that there isn't enough signal to distinguish an indent from noise —
// and splits occur where a line's left edge sits ParagraphIndent
// points or more to the right of the box's dominant left margin.
func SplitParagraphs(lines []Line, params LAParams) [][]Line {
	if len(lines) <= 5 || params.ParagraphIndent <= 0 {
		return [][]Line{lines}
	}
	margin := lines[0].Box.X0
	for _, l := range lines {
		margin = min64(margin, l.Box.X0)
	}
	var out [][]Line
	var cur []Line
	for _, l := range lines {
		indented := l.Box.X0-margin >= float64(params.ParagraphIndent)
		if indented && len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// groupItem is one member of the Stage 4 clustering tree: either a
// leaf *TextBox or a nested *Group produced by an earlier merge.
type groupItem interface {
	rect() bbox
	vertical() bool
}

func (tb *TextBox) rect() bbox     { return tb.Box }
func (tb *TextBox) vertical() bool { return tb.Vertical }

// Group is one node of the agglomerative clustering tree pdfminer's
// group_objects builds over a page's TextBoxes: a pairwise-merged
// cluster of boxes (and, deeper in the tree, other Groups), classified
// TBRL (top-to-bottom, then right-to-left) when either merged member
// reads vertically, or LRTB (left-to-right, then top-to-bottom)
// otherwise.
type Group struct {
	Box     bbox
	TBRL    bool
	Members []groupItem
}

func (g *Group) rect() bbox     { return g.Box }
func (g *Group) vertical() bool { return g.TBRL }

// maxGroupableBoxes caps the Stage 4 cost: the pairwise-distance
// agglomeration is O(n^2 log n) per round, cheap for an ordinary page
// but not worth paying on a pathologically box-dense one.
const maxGroupableBoxes = 100

// boxDistance is pdfminer's group_objects metric: the area of the
// pair's union bbox minus each member's own area. Two boxes that
// nearly coincide or sit flush against each other score low (even
// negative, when they overlap); two boxes far apart score high.
func boxDistance(a, b groupItem) float64 {
	ra, rb := a.rect(), b.rect()
	u := union(ra, rb)
	return u.width()*u.height() - ra.width()*ra.height() - rb.width()*rb.height()
}

func rectsIntersect(a, b bbox) bool {
	return a.X0 < b.X1 && b.X0 < a.X1 && a.Y0 < b.Y1 && b.Y0 < a.Y1
}

// groupBoxes runs Stage 4's greedy agglomerative pairing: repeatedly
// merge the closest pair of remaining items (by boxDistance) into a
// Group, unless some other live item intrudes into the candidate
// pair's union rectangle — in which case that pair is skipped in
// favor of the next-closest candidate, same as pdfminer re-enqueuing
// an intruded-upon pair behind the other candidates of equal rank.
// Terminates when a single member remains, or immediately when there
// are more than maxGroupableBoxes boxes to begin with.
func groupBoxes(boxes []TextBox) []groupItem {
	items := make([]groupItem, len(boxes))
	for i := range boxes {
		items[i] = &boxes[i]
	}
	if len(items) > maxGroupableBoxes {
		return items
	}

	type pair struct {
		i, j int
		dist float64
	}

	for len(items) > 1 {
		var pairs []pair
		for i := 0; i < len(items); i++ {
			for j := i + 1; j < len(items); j++ {
				pairs = append(pairs, pair{i, j, boxDistance(items[i], items[j])})
			}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })

		merged := false
		for _, p := range pairs {
			a, b := items[p.i], items[p.j]
			u := union(a.rect(), b.rect())

			intruded := false
			for k, it := range items {
				if k == p.i || k == p.j {
					continue
				}
				if rectsIntersect(u, it.rect()) {
					intruded = true
					break
				}
			}
			if intruded {
				continue
			}

			g := &Group{Box: u, TBRL: a.vertical() || b.vertical(), Members: []groupItem{a, b}}
			next := make([]groupItem, 0, len(items)-1)
			for k, it := range items {
				if k == p.i || k == p.j {
					continue
				}
				next = append(next, it)
			}
			next = append(next, g)
			items = next
			merged = true
			break
		}
		if !merged {
			break
		}
	}
	return items
}

// flowKey is pdfminer's boxes_flow reordering key: a tunable blend
// between strict left-to-right-top-to-bottom reading order
// (boxes_flow=+1) and strict top-to-bottom-left-to-right order
// (boxes_flow=-1). LRTB items use the x0/ (y0+y1) form; TBRL items
// use the transposed form keyed on x0+x1 / y1.
func flowKey(it groupItem, boxesFlow float64) float64 {
	b := it.rect()
	if it.vertical() {
		return -(1+boxesFlow)*(b.X0+b.X1) - (1-boxesFlow)*b.Y1
	}
	return (1-boxesFlow)*b.X0 - (1+boxesFlow)*(b.Y0+b.Y1)
}

func flattenGroupItem(it groupItem, params LAParams, out *[]TextBox) {
	switch v := it.(type) {
	case *TextBox:
		*out = append(*out, *v)
	case *Group:
		members := append([]groupItem(nil), v.Members...)
		sort.Slice(members, func(i, j int) bool {
			return flowKey(members[i], params.BoxesFlow) < flowKey(members[j], params.BoxesFlow)
		})
		for _, m := range members {
			flattenGroupItem(m, params, out)
		}
	}
}

// GroupBoxes runs Stage 4 (Box grouping) over the TextBoxes Stage 2/3
// produced: it agglomerates them into a Group tree via groupBoxes,
// then walks the tree applying the boxes_flow key at every level to
// produce one final reading-order slice of TextBoxes.
func GroupBoxes(boxes []TextBox, params LAParams) []TextBox {
	if len(boxes) == 0 {
		return nil
	}
	items := groupBoxes(boxes)
	sort.Slice(items, func(i, j int) bool {
		return flowKey(items[i], params.BoxesFlow) < flowKey(items[j], params.BoxesFlow)
	})
	out := make([]TextBox, 0, len(boxes))
	for _, it := range items {
		flattenGroupItem(it, params, &out)
	}
	return out
}

// IndexAssigner numbers TextBoxes in reading order, matching
// pdfminer's IndexAssigner: primarily top-to-bottom, then
// left-to-right, used so callers can cite "box 3" stably across runs.
type IndexAssigner struct {
	next int
}

// Assign stamps sequential indices (returned, not mutated in place
// since TextBox has no Index field of its own) onto boxes already
// sorted into reading order by GroupTextBoxes.
func (ia *IndexAssigner) Assign(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = ia.next
		ia.next++
	}
	return idx
}

// Layout runs the full 4-stage pipeline — line formation, line-to-box
// grouping (with paragraph splitting), and box-to-group clustering —
// over one page's Content, in pdfminer's LAParams-driven reading
// order.
func Layout(c Content, params LAParams) []TextBox {
	lines := GroupLines(c.Text, params)
	boxes := GroupTextBoxes(lines, params)
	return GroupBoxes(boxes, params)
}
