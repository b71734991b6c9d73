package dbtime

import "time"

// DBNow returns the current time in the form stored in DATETIME columns.
func DBNow() time.Time {
	return DBTime(time.Now())
}

// DBTime normalises t to UTC with millisecond precision so values survive a
// round trip through SQLite unchanged.
func DBTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
