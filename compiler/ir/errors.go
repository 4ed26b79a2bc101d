package ir

import "fmt"

// NameError is raised when an expression references an undeclared local
// (spec.md §4.4 "UseOfUndeclared", §7).
type NameError struct {
	Name string
	Line int
}

func (e NameError) Error() string {
	return fmt.Sprintf("line %d: use of undeclared name %q", e.Line, e.Name)
}

// CallArityError is raised when a builtin call has the wrong argument
// count (spec.md §7).
type CallArityError struct {
	Name string
	Want int
	Got  int
	Line int
}

func (e CallArityError) Error() string {
	return fmt.Sprintf("line %d: %s expects %d argument(s), got %d", e.Line, e.Name, e.Want, e.Got)
}

// UnknownCallError is raised when a call targets a name that is not one
// of the builtins spec.md §4.3/§4.5 define (spec.md §7).
type UnknownCallError struct {
	Name string
	Line int
}

func (e UnknownCallError) Error() string {
	return fmt.Sprintf("line %d: unknown call %q", e.Line, e.Name)
}
