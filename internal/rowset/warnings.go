package rowset

import "time"

// Warning is a non-fatal condition recorded by a row set.
type Warning struct {
	// Key is the message key, usable for matching.
	Key string

	// Message is the rendered text.
	Message string

	// Time is when the warning was recorded.
	Time time.Time
}

func (w Warning) String() string {
	return w.Message
}

func (rs *RowSet) warn(key string, args ...interface{}) {
	rs.warnings = append(rs.warnings, Warning{
		Key:     key,
		Message: rs.msgs.Text(key, args...),
		Time:    time.Now(),
	})
}

// Warnings returns the warnings recorded since the last ClearWarnings, oldest
// first.
func (rs *RowSet) Warnings() []Warning {
	out := make([]Warning, len(rs.warnings))
	copy(out, rs.warnings)
	return out
}

// ClearWarnings discards the recorded warnings.
func (rs *RowSet) ClearWarnings() {
	rs.warnings = nil
}
