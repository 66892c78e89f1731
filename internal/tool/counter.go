package tool

// BubbleCounter hands out bubble labels. It only ever counts up; undoing a
// bubble does not give its number back.
type BubbleCounter struct {
	next int
}

// NewBubbleCounter returns a counter whose first label is 1.
func NewBubbleCounter() *BubbleCounter { return &BubbleCounter{next: 1} }

// Next returns the next label and advances the counter.
func (c *BubbleCounter) Next() int {
	if c.next < 1 {
		c.next = 1
	}
	n := c.next
	c.next++
	return n
}

// Peek returns the label Next would return without advancing.
func (c *BubbleCounter) Peek() int {
	if c.next < 1 {
		return 1
	}
	return c.next
}

// Advance moves the counter past n so restored documents never reuse a
// label already on the canvas.
func (c *BubbleCounter) Advance(n int) {
	if n >= c.Peek() {
		c.next = n + 1
	}
}
