package tui

// sparklineChars maps levels 0..7 to the block elements ▁▂▃▄▅▆▇█.
var sparklineChars = [8]rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// RingBuffer keeps the most recent samples of a series.
type RingBuffer struct {
	data  []float64
	head  int
	count int
}

// NewRingBuffer returns a buffer holding at most capacity samples.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]float64, max(capacity, 1))}
}

// Push appends v, dropping the oldest sample when full.
func (r *RingBuffer) Push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % len(r.data)
	r.count = min(r.count+1, len(r.data))
}

// Len returns the number of samples held.
func (r *RingBuffer) Len() int { return r.count }

// Last returns the newest sample, or 0 when empty.
func (r *RingBuffer) Last() float64 {
	if r.count == 0 {
		return 0
	}
	return r.data[(r.head-1+len(r.data))%len(r.data)]
}

// Peak returns the largest sample held, or 0 when empty.
func (r *RingBuffer) Peak() float64 {
	var peak float64
	for _, v := range r.Slice() {
		peak = max(peak, v)
	}
	return peak
}

// Slice returns the samples oldest first, or nil when empty.
func (r *RingBuffer) Slice() []float64 {
	if r.count == 0 {
		return nil
	}
	out := make([]float64, r.count)
	start := (r.head - r.count + len(r.data)) % len(r.data)
	for i := range out {
		out[i] = r.data[(start+i)%len(r.data)]
	}
	return out
}

// Tail returns at most n of the newest samples, oldest first.
func (r *RingBuffer) Tail(n int) []float64 {
	s := r.Slice()
	if n >= 0 && len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// Reset drops every sample.
func (r *RingBuffer) Reset() {
	r.head, r.count = 0, 0
}

func clampPercent(v float64) float64 {
	return min(max(v, 0), 100)
}

// RenderSparkline draws percentages as one block character each.
func RenderSparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	runes := make([]rune, len(values))
	for i, v := range values {
		runes[i] = sparklineChars[int(clampPercent(v)/100*7)]
	}
	return string(runes)
}

// brailleDots holds the dot bits of a braille cell by column then row.
var brailleDots = [2][4]rune{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// RenderBrailleChart plots percentages on a rows x width grid of braille
// cells, two samples per cell, newest on the right.
func RenderBrailleChart(values []float64, width, rows int) []string {
	if width <= 0 || rows <= 0 || len(values) == 0 {
		return nil
	}
	dotRows, dotCols := rows*4, width*2
	if len(values) > dotCols {
		values = values[len(values)-dotCols:]
	}

	grid := make([][]rune, rows)
	for r := range grid {
		grid[r] = make([]rune, width)
		for c := range grid[r] {
			grid[r][c] = 0x2800
		}
	}

	offset := dotCols - len(values)
	for i, v := range values {
		col := offset + i
		row := dotRows - 1 - int(clampPercent(v)/100*float64(dotRows-1))
		grid[row/4][col/2] |= brailleDots[col%2][row%4]
	}

	out := make([]string, rows)
	for r := range grid {
		out[r] = string(grid[r])
	}
	return out
}
