package codec

// Safety limits applied when decoding untrusted buffers.
const (
	// DefaultMaxElements caps array lengths whose elements occupy no wire
	// bytes (arrays of void and of empty tuples/structs), which the
	// remaining-bytes check cannot bound.
	DefaultMaxElements = 1 << 16

	// DefaultMaxDepth is the default descriptor nesting limit; zero means
	// unlimited. Nesting is bounded by the descriptor, not the buffer.
	DefaultMaxDepth = 0
)

type config struct {
	maxElements   uint64
	maxDepth      int
	allowTrailing bool
}

func defaultConfig() config {
	return config{
		maxElements: DefaultMaxElements,
		maxDepth:    DefaultMaxDepth,
	}
}

// Option configures a Decoder.
type Option func(*config)

// WithMaxElements sets the element cap for zero-width arrays.
func WithMaxElements(n uint64) Option {
	return func(c *config) { c.maxElements = n }
}

// WithMaxDepth sets the maximum descriptor nesting depth. Zero disables
// the check.
func WithMaxDepth(n int) Option {
	return func(c *config) { c.maxDepth = n }
}

// WithAllowTrailing accepts buffers with bytes after the encoded value.
func WithAllowTrailing() Option {
	return func(c *config) { c.allowTrailing = true }
}
