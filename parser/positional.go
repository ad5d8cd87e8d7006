package parser

// PositionalSpec is an immutable declarative description of a single
// positional parameter.
type PositionalSpec struct {
	name  string
	arity Arity
}

func (p *PositionalSpec) Name() string { return p.name }
func (p *PositionalSpec) Arity() Arity { return p.arity }

// PositionalBuilder assembles a PositionalSpec under a CommandBuilder.
type PositionalBuilder struct {
	parent *CommandBuilder
	spec   *PositionalSpec
}

func newPositionalBuilder(parent *CommandBuilder, name string) *PositionalBuilder {
	return &PositionalBuilder{
		parent: parent,
		spec:   &PositionalSpec{name: name, arity: ExactlyOne},
	}
}

// Arity sets the positional's value arity. Defaults to ExactlyOne.
func (b *PositionalBuilder) Arity(a Arity) *PositionalBuilder {
	b.spec.arity = a
	return b
}

// Build validates the accumulated PositionalSpec and returns the parent
// CommandBuilder.
func (b *PositionalBuilder) Build() *CommandBuilder {
	spec, err := b.build()
	if err != nil {
		b.parent.deferErr(err)
		return b.parent
	}
	b.parent.addPositional(spec)
	return b.parent
}

func (b *PositionalBuilder) build() (*PositionalSpec, error) {
	if b.spec.name == "" {
		return nil, &SpecValidationError{Kind: EmptyOptionName, Message: "positional name must not be empty"}
	}
	if err := b.spec.arity.validate(); err != nil {
		return nil, err
	}
	return b.spec, nil
}
