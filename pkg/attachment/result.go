package attachment

// Result is the outcome of validating a file list. Rules are checked in
// declaration order and the first failing rule wins.
type Result int

const (
	Valid Result = iota
	InvalidType
	TooLarge
	TooManyItems
	TooFewItems
)

func (r Result) String() string {
	switch r {
	case Valid:
		return "valid"
	case InvalidType:
		return "accept"
	case TooLarge:
		return "maxFileSize"
	case TooManyItems:
		return "maxItems"
	case TooFewItems:
		return "minItems"
	default:
		return "unknown"
	}
}

// MarshalText lets results travel as their rule name in JSON responses.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
