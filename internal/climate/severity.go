package climate

import "fmt"

// Severity is the classified state of the environment.
//
// Values are ordered by ascending severity, so they may be compared with < and
// >. Every switch over Severity in this module lists all three cases; adding a
// tier means visiting each of them.
type Severity int

const (
	// Normal means both temperature and humidity are below the warning pair.
	Normal Severity = iota

	// Warning means at least one quantity reached the warning pair but both
	// are below the critical pair.
	Warning

	// Critical means at least one quantity reached the critical pair.
	Critical
)

// Severities lists every severity in ascending order.
var Severities = []Severity{Normal, Warning, Critical}

// String returns the lower-case name of the severity.
func (s Severity) String() string {
	switch s {
	case Normal:
		return "normal"
	case Warning:
		return "warning"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Label returns the upper-case form used on the status display.
func (s Severity) Label() string {
	switch s {
	case Normal:
		return "NORMAL"
	case Warning:
		return "WARNING"
	case Critical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler so severities serialise by
// name in JSON.
func (s Severity) MarshalText() ([]byte, error) {
	switch s {
	case Normal, Warning, Critical:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown severity %d", int(s))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseSeverity parses the name produced by [Severity.String].
func ParseSeverity(name string) (Severity, error) {
	for _, s := range Severities {
		if s.String() == name {
			return s, nil
		}
	}
	return Normal, fmt.Errorf("unknown severity %q", name)
}

// Max returns the more severe of a and b.
func Max(a, b Severity) Severity {
	if b > a {
		return b
	}
	return a
}
