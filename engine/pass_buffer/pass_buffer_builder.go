package pass_buffer

// PassBufferBuilderOption is a functional option used to configure a PassBuffer during construction.
type PassBufferBuilderOption func(*passBufferConfig)

type passBufferConfig struct {
	label string
}

// WithLabel sets the debug label of the backing GPU buffer.
//
// Parameters:
//   - label: the buffer label
//
// Returns:
//   - PassBufferBuilderOption: a function that sets the label
func WithLabel(label string) PassBufferBuilderOption {
	return func(c *passBufferConfig) {
		c.label = label
	}
}
