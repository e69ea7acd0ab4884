package config

import "log/slog"

// Secret is a credential that redacts itself in every formatting and
// logging path; only Reveal returns the real value. JSON round-trips keep
// the value so reload copies stay intact.
type Secret string

const redacted = "[REDACTED]"

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return redacted }

func (s Secret) LogValue() slog.Value { return slog.StringValue(redacted) }

// Reveal returns the underlying value.
func (s Secret) Reveal() string { return string(s) }

// Zero reports whether no value is set.
func (s Secret) Zero() bool { return s == "" }
