package store

import "database/sql"

// Mode is a transportation mode annotation. The zero value is the
// "unknown" state used when no labeled interval matched an activity;
// unknown is a distinct state, not a magic string.
type Mode struct {
	name  string
	known bool
}

// NamedMode returns a known mode with the given name. An empty name
// yields the unknown mode.
func NamedMode(name string) Mode {
	if name == "" {
		return Mode{}
	}
	return Mode{name: name, known: true}
}

// UnknownMode returns the unknown mode. Equivalent to the zero value.
func UnknownMode() Mode {
	return Mode{}
}

// Known reports whether the mode carries a name.
func (m Mode) Known() bool { return m.known }

// Name returns the mode name, or "" for the unknown mode.
func (m Mode) Name() string { return m.name }

// String renders the mode for reports and logs.
func (m Mode) String() string {
	if !m.known {
		return "unknown"
	}
	return m.name
}

// NullString maps the mode onto SQL NULL semantics: unknown stores as
// NULL, never as a sentinel string.
func (m Mode) NullString() sql.NullString {
	return sql.NullString{String: m.name, Valid: m.known}
}

// ModeFromNullString is the inverse of NullString.
func ModeFromNullString(ns sql.NullString) Mode {
	if !ns.Valid {
		return Mode{}
	}
	return NamedMode(ns.String)
}
