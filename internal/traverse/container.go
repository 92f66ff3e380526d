package traverse

// Container is an ordered collection of traversal items. A stack pops the
// most recently pushed item; a queue pops the oldest. Both append on push,
// they differ only in which end Pop and Peek read from.
type Container[T any] struct {
	items []T
	lifo  bool
}

// NewStack returns a last-in-first-out container holding items.
func NewStack[T any](items ...T) *Container[T] {
	c := &Container[T]{lifo: true}
	c.PushAll(items...)
	return c
}

// NewQueue returns a first-in-first-out container holding items.
func NewQueue[T any](items ...T) *Container[T] {
	c := &Container[T]{}
	c.PushAll(items...)
	return c
}

// ForOrder returns the container used to schedule work in the given order:
// a stack for depth-first, a queue for breadth-first.
func ForOrder[T any](o Order, items ...T) *Container[T] {
	if o == BreadthFirst {
		return NewQueue(items...)
	}
	return NewStack(items...)
}

// Push appends item.
func (c *Container[T]) Push(item T) {
	c.items = append(c.items, item)
}

// PushAll appends items in order.
func (c *Container[T]) PushAll(items ...T) {
	c.items = append(c.items, items...)
}

// Pop removes and returns the top item. Popping an empty container is a
// programming error and panics.
func (c *Container[T]) Pop() T {
	if len(c.items) == 0 {
		panic("traverse: pop from empty container")
	}
	var zero T
	if c.lifo {
		last := len(c.items) - 1
		item := c.items[last]
		c.items[last] = zero
		c.items = c.items[:last]
		return item
	}
	item := c.items[0]
	c.items[0] = zero
	c.items = c.items[1:]
	return item
}

// Peek returns the top item without removing it. The boolean is false when
// the container is empty.
func (c *Container[T]) Peek() (T, bool) {
	if len(c.items) == 0 {
		var zero T
		return zero, false
	}
	if c.lifo {
		return c.items[len(c.items)-1], true
	}
	return c.items[0], true
}

// Empty reports whether the container holds no items.
func (c *Container[T]) Empty() bool { return len(c.items) == 0 }

// Len returns the number of items.
func (c *Container[T]) Len() int { return len(c.items) }

// Items returns a copy of the items, oldest first.
func (c *Container[T]) Items() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}
