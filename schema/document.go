package schema

// Document is the YAML form of a grammar.
type Document struct {
	Classes   ClassSpec           `yaml:"classes"`
	Scoping   ScopingSpec         `yaml:"scoping"`
	Fragments FragmentSpec        `yaml:"fragments"`
	Controls  []string            `yaml:"controls"`
	Types     map[string]TypeSpec `yaml:"types"`
}

// ClassSpec names the aliases classifications are derived from.
type ClassSpec struct {
	Expression    string   `yaml:"expression"`
	Statement     string   `yaml:"statement"`
	Block         string   `yaml:"block"`
	BlockType     string   `yaml:"blockType"`
	Declaration   string   `yaml:"declaration"`
	Function      string   `yaml:"function"`
	FunctionScope string   `yaml:"functionScope"`
	BlockScope    string   `yaml:"blockScope"`
	LVal          []string `yaml:"lval"`
}

// ScopingSpec tells the resolver how bindings look in this grammar.
type ScopingSpec struct {
	Identifier string          `yaml:"identifier"`
	Name       string          `yaml:"name"`
	Unordered  []UnorderedRule `yaml:"unordered"`
	OuterName  []string        `yaml:"outerName"`
}

// UnorderedRule selects declarations that belong to the nearest function
// scope instead of the nearest block. With Field set only nodes whose
// attribute is one of Values match.
type UnorderedRule struct {
	Type   string   `yaml:"type"`
	Field  string   `yaml:"field"`
	Values []string `yaml:"values"`
}

// FragmentSpec tells templates how to cut fragments out of a parsed program.
type FragmentSpec struct {
	Body       []string       `yaml:"body"`
	Wrapper    string         `yaml:"wrapper"`
	Expression string         `yaml:"expression"`
	Declarator DeclaratorSpec `yaml:"declarator"`
	Block      BlockSpec      `yaml:"block"`
	Marker     string         `yaml:"marker"`
}

// BlockSpec names the statement type holding a statement list and the
// field of that list.
type BlockSpec struct {
	Type  string `yaml:"type"`
	Field string `yaml:"field"`
}

// DeclaratorSpec parses declarator fragments by prefixing them.
type DeclaratorSpec struct {
	Prefix string `yaml:"prefix"`
	Field  string `yaml:"field"`
}

// TypeSpec describes one node type.
type TypeSpec struct {
	Visit    []string             `yaml:"visit"`
	Builder  []string             `yaml:"builder"`
	Aliases  []string             `yaml:"aliases"`
	Fields   map[string]FieldSpec `yaml:"fields"`
	Variants []VariantSpec        `yaml:"variants"`
}

// FieldSpec is a field validator. Exactly one of Type, Enum, Nodes or Array
// must be given.
type FieldSpec struct {
	Type     string     `yaml:"type"`
	Enum     []string   `yaml:"enum"`
	Nodes    []string   `yaml:"nodes"`
	Array    *FieldSpec `yaml:"array"`
	Optional bool       `yaml:"optional"`
	Default  any        `yaml:"default"`
	Binding  bool       `yaml:"binding"`
	Param    bool       `yaml:"param"`
}

// VariantSpec overrides field validators for nodes whose discriminant
// attribute equals a value, e.g. computed member access.
type VariantSpec struct {
	When   Discriminant         `yaml:"when"`
	Fields map[string]FieldSpec `yaml:"fields"`
}

// Discriminant selects a variant.
type Discriminant struct {
	Field  string `yaml:"field"`
	Equals any    `yaml:"equals"`
}
