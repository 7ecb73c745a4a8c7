package hdl

// A Context is the construction context for one circuit-description session.
// It holds the active block and the memory identity counter, replacing hidden
// process-wide state with explicit, resettable session state. A Context is
// used from a single goroutine.
type Context struct {
	block      *Block
	nextMemID  int
	generation int
}

// NewContext creates a construction context with a fresh empty block.
func NewContext() *Context {
	return &Context{block: NewBlock()}
}

// Block returns the active netlist container.
func (c *Context) Block() *Block {
	return c.block
}

// SetBlock makes b the active netlist container.
func (c *Context) SetBlock(b *Block) {
	c.block = b
}

// NextMemoryID returns a session-unique, monotonically increasing memory
// identity.
func (c *Context) NextMemoryID() int {
	id := c.nextMemID
	c.nextMemID++
	return id
}

// Generation returns how many times the context has been reset. It lets
// long-lived collaborators detect that they are holding handles from a
// previous session.
func (c *Context) Generation() int {
	return c.generation
}

// Reset discards the active block and restarts the identity counter. It is
// meant to be called between independent construction sessions, typically in
// tests.
func (c *Context) Reset() {
	c.block = NewBlock()
	c.nextMemID = 0
	c.generation++
}
