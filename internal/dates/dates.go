package dates

import (
	"regexp"
	"strings"
	"time"
)

const (
	clockLayout = "2006:01:02 15:04:05"
	stampLayout = "2006_01_02"
	dateLayout  = "2006:01:02"
)

var (
	subSecondRe = regexp.MustCompile(`\.\d+`)
	offsetRe    = regexp.MustCompile(`[+-]\d{1,2}(:?\d{2})?$`)
	dateSepRe   = regexp.MustCompile(`[-_]`)
)

// Clock formats a time in clock form (YYYY:MM:DD HH:MM:SS).
func Clock(t time.Time) string {
	return t.Format(clockLayout)
}

// FileStamp formats a time in filename form (YYYY_MM_DD).
func FileStamp(t time.Time) string {
	return t.Format(stampLayout)
}

// ToClock converts any supported date representation into clock form.
//
// Supported inputs cover what metadata tools emit in practice:
// ":"- or "-"-separated dates, a "T" or space between date and time,
// sub-second suffixes, numeric timezone offsets ("-05:00", "+0200",
// "-5"), a trailing "Z", and named "UTC"/"GMT" zones. A date without
// a time component gets 00:00:00.
//
// The second return value is false when the input is not a
// recognizable date (including placeholder values like
// "0000:00:00 00:00:00").
func ToClock(raw string) (string, bool) {
	t, ok := parse(raw)
	if !ok {
		return "", false
	}
	return t.Format(clockLayout), true
}

// ToFileStamp converts any supported date representation into
// filename form. It accepts the same inputs as ToClock, including
// values already in filename form.
func ToFileStamp(raw string) (string, bool) {
	t, ok := parse(raw)
	if !ok {
		return "", false
	}
	return t.Format(stampLayout), true
}

// Equal reports whether two date strings denote the same instant
// under the verification rules: sub-second precision, timezone
// suffixes, and "-"/"-vs-":" separator differences are ignored.
// Two unparseable strings are never equal.
func Equal(a, b string) bool {
	ta, ok := parse(a)
	if !ok {
		return false
	}
	tb, ok := parse(b)
	if !ok {
		return false
	}
	return ta.Equal(tb)
}

// parse reduces a raw date string to a naive local time. Timezone
// information is stripped, not applied: verification compares wall
// clock values, and filenames never carry zones.
func parse(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	s = strings.Replace(s, "T", " ", 1)

	fields := strings.Fields(s)
	datePart := dateSepRe.ReplaceAllString(fields[0], ":")

	timePart := ""
	if len(fields) > 1 {
		switch strings.ToUpper(fields[len(fields)-1]) {
		case "UTC", "GMT":
			fields = fields[:len(fields)-1]
		}
	}
	if len(fields) > 1 {
		timePart = fields[1]
		timePart = subSecondRe.ReplaceAllString(timePart, "")
		timePart = strings.TrimSuffix(timePart, "Z")
		timePart = offsetRe.ReplaceAllString(timePart, "")
	}

	if timePart == "" {
		t, err := time.Parse(dateLayout, datePart)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	t, err := time.Parse(clockLayout, datePart+" "+timePart)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
