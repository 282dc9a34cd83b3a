package diag

// Error codes for the ssac compiler. Ranges mirror a Rust-style
// compiler's convention so messages stay greppable across the toolchain.
//
// E0001-E0099: scanning/parsing errors
// E0100-E0199: name resolution and redefinition errors
// E0200-E0299: call/arity/type errors
// E0300-E0399: array/index errors
// W0001-W0099: warnings (compilation continues)
const (
	ErrScan           = "E0001"
	ErrParse          = "E0002"
	ErrUndefinedIdent = "E0101"
	ErrRedefinedIdent = "E0102"
	ErrTypeMismatch   = "E0201"
	ErrArityMismatch  = "E0202"
	ErrConstOOBIndex  = "E0301"
	ErrArrayDimension = "E0302"
	WarnUninitialized = "W0001"
)

// Description returns a human-readable explanation of a code.
func Description(code string) string {
	switch code {
	case ErrScan:
		return "malformed token"
	case ErrParse:
		return "unexpected token"
	case ErrUndefinedIdent:
		return "identifier not declared in any enclosing scope"
	case ErrRedefinedIdent:
		return "identifier already declared in this scope"
	case ErrTypeMismatch:
		return "scalar used where a procedure name was expected, or vice versa"
	case ErrArityMismatch:
		return "call argument count disagrees with the declaration"
	case ErrConstOOBIndex:
		return "constant array index outside the declared bound"
	case ErrArrayDimension:
		return "array reference supplies the wrong number of index expressions"
	case WarnUninitialized:
		return "scalar read before any assignment reaches it"
	default:
		return "unknown diagnostic"
	}
}

// IsWarning reports whether code denotes a non-fatal diagnostic.
func IsWarning(code string) bool {
	return len(code) > 0 && code[0] == 'W'
}
