package utils

import "time"

// All persisted timestamps are unix seconds; these helpers keep the
// conversions in one place.

func NowUnixSeconds() int64 { return time.Now().Unix() }

func FromUnixSeconds(t int64) time.Time {
	if t <= 0 {
		return time.Time{}
	}
	return time.Unix(t, 0).UTC()
}

func FormatRFC3339(t int64) string {
	ts := FromUnixSeconds(t)
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}

func FormatRFC3339Ptr(t *int64) string {
	if t == nil {
		return ""
	}
	return FormatRFC3339(*t)
}
