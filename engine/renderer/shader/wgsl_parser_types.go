package shader

// ResourceKind classifies a parsed @group/@binding declaration.
type ResourceKind int

const (
	ResourceKindUniformBuffer ResourceKind = iota
	ResourceKindReadOnlyStorageBuffer
	ResourceKindStorageBuffer
	ResourceKindTexture
	ResourceKindDepthTexture
	ResourceKindSampler
	ResourceKindComparisonSampler
)

// IsBuffer reports whether the kind is one of the buffer kinds.
func (k ResourceKind) IsBuffer() bool {
	return k <= ResourceKindStorageBuffer
}

// Binding is one @group(N) @binding(M) declaration found in WGSL source.
type Binding struct {
	Group   int
	Binding int
	Name    string
	Type    string
	Kind    ResourceKind

	// Multisampled is set for texture_multisampled_* and texture_depth_multisampled_* types.
	Multisampled bool

	// MinSize is the byte size of one bound element for buffers whose type could be resolved.
	MinSize uint64
}

// TypeLayout holds the byte size and alignment of a WGSL type per the WGSL layout rules.
type TypeLayout struct {
	Size  uint64
	Align uint64
}

// parsedField represents a single field extracted from a WGSL struct during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}
