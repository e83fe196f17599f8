package primitives

import "strings"

// Direction is the flow direction of a DataPort.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// DataPort is a typed input or output slot on a state: id, name, data type,
// default value, direction. Names are unique per direction within a state;
// ids are unique across both directions within a state.
type DataPort struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	DataType     DataType  `json:"dataType" yaml:"dataType"`
	DefaultValue Value     `json:"defaultValue" yaml:"defaultValue"`
	Direction    Direction `json:"direction" yaml:"direction"`
}

// DefaultIsGlobalRef reports whether the port's default value is a string
// beginning with "$", meaning it resolves through the global variable store
// rather than being used literally.
func (p DataPort) DefaultIsGlobalRef() bool {
	return p.DataType == TypeString && strings.HasPrefix(p.DefaultValue.Str, "$") && p.DefaultValue.Type == TypeString
}

// GlobalRefName strips the leading "$" from a global-ref default value.
func (p DataPort) GlobalRefName() string {
	return strings.TrimPrefix(p.DefaultValue.Str, "$")
}

// Validate checks the port's own fields (name legality, valid direction/type).
// Uniqueness checks are the container's responsibility since they require
// sibling context.
func (p DataPort) Validate() error {
	if err := ValidateName(p.Name); err != nil {
		return err
	}
	switch p.Direction {
	case Input, Output:
	default:
		return NewStructuralError(KindIllegalName, "DataPort.Validate", "direction must be Input or Output, got "+string(p.Direction))
	}
	return nil
}
