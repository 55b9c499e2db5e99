package domain

// ArgSpec describes one argument a command accepts. It is informational: the
// engine never validates calls against it.
type ArgSpec struct {
	Name        string `json:"name" yaml:"name" mapstructure:"name"`
	Type        string `json:"type" yaml:"type" mapstructure:"type"` // string, number, boolean, array
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty" mapstructure:"required"`
}

// ArgSchema is the argument declaration of a command.
type ArgSchema struct {
	Args []ArgSpec `json:"args,omitempty" yaml:"args,omitempty" mapstructure:"args"`
}

// CommandInfo describes a registered command for listings and help output.
type CommandInfo struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      ArgSchema `json:"schema" yaml:"schema"`
}
