package primitives

// ScopedVariable is a port-shaped value owned by a container, readable and
// writable by the container's direct children through data-flows.
type ScopedVariable struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	DataType     DataType `json:"dataType" yaml:"dataType"`
	DefaultValue Value    `json:"defaultValue" yaml:"defaultValue"`
}

func (v ScopedVariable) Validate() error {
	return ValidateName(v.Name)
}
