package blame

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Arguments the parser expects git blame to be run with. --line-porcelain
// repeats the commit headers for every line so each record stands alone, and
// --root stops the root commit from being marked as a boundary.
var BlameArgs = []string{"blame", "--line-porcelain", "--root"}

// A record looks like:
//
//	1e1d1c3c... 142 12 3
//	author John Doe
//	author-mail <john@example.com>
//	author-time 1546358400
//	author-tz -0400
//	...
//	filename path/to/file.go
//	<TAB>content
//
// The header carries the commit, the original and the final line number and,
// on the first line of a group, the group size. Content follows a single TAB
// and is kept verbatim.
var headerPattern = regexp.MustCompile(`^([0-9a-f]{4,64}) (\d+) (\d+)(?: \d+)?$`)

// ParseError reports a blame record that does not match the expected grammar.
type ParseError struct {
	Line   int // 1-based line of the raw output
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse blame output line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parse turns raw porcelain blame output into line records. Every record
// must be complete and the final line numbers must run 1..n without gaps;
// anything else fails instead of producing a partial view.
func Parse(raw string) ([]LineRecord, error) {
	if raw == "" {
		return nil, nil
	}
	rows := strings.Split(strings.TrimSuffix(raw, "\n"), "\n")

	var records []LineRecord
	for i := 0; i < len(rows); {
		rec, next, err := parseRecord(rows, i)
		if err != nil {
			return nil, err
		}
		if want := len(records) + 1; rec.Number != want {
			return nil, &ParseError{
				Line:   i + 1,
				Text:   rows[i],
				Reason: fmt.Sprintf("expected line number %d, got %d", want, rec.Number),
			}
		}
		records = append(records, rec)
		i = next
	}
	return records, nil
}

// parseRecord reads the record starting at rows[start] and returns the index
// of the row after it.
func parseRecord(rows []string, start int) (LineRecord, int, *ParseError) {
	fail := func(i int, reason string) (LineRecord, int, *ParseError) {
		return LineRecord{}, 0, &ParseError{Line: i + 1, Text: rows[i], Reason: reason}
	}

	m := headerPattern.FindStringSubmatch(rows[start])
	if m == nil {
		return fail(start, "malformed record")
	}
	orig, err := strconv.Atoi(m[2])
	if err != nil {
		return fail(start, "bad original line number")
	}
	num, err := strconv.Atoi(m[3])
	if err != nil {
		return fail(start, "bad line number")
	}

	rec := LineRecord{Number: num, OrigNumber: orig, Commit: CommitID(m[1])}
	var (
		epoch, tz        string
		hasAuthor, ended bool
	)
	i := start + 1
	for ; i < len(rows); i++ {
		row := rows[i]
		if headerPattern.MatchString(row) {
			return fail(i, "record has no content line")
		}
		if strings.HasPrefix(row, "\t") {
			rec.Content = row[1:]
			ended = true
			i++
			break
		}
		key, value, _ := strings.Cut(row, " ")
		switch key {
		case "author":
			rec.Author = value
			hasAuthor = true
		case "author-time":
			epoch = value
		case "author-tz":
			tz = value
		case "boundary":
			rec.Boundary = true
		}
	}
	if !ended {
		return fail(len(rows)-1, "record has no content line")
	}
	if !hasAuthor || epoch == "" || tz == "" {
		return fail(start, "record is missing author fields")
	}

	when, err := authorTime(epoch, tz)
	if err != nil {
		return fail(start, "bad timestamp")
	}
	rec.Time = when
	return rec, i, nil
}

// authorTime combines a unix timestamp with a "+hhmm" zone.
func authorTime(epoch, tz string) (time.Time, error) {
	sec, err := strconv.ParseInt(epoch, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	if len(tz) != 5 || (tz[0] != '+' && tz[0] != '-') {
		return time.Time{}, fmt.Errorf("bad zone %q", tz)
	}
	hh, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return time.Time{}, err
	}
	mm, err := strconv.Atoi(tz[3:5])
	if err != nil || mm >= 60 {
		return time.Time{}, fmt.Errorf("bad zone %q", tz)
	}
	offset := hh*3600 + mm*60
	if tz[0] == '-' {
		offset = -offset
	}
	return time.Unix(sec, 0).In(time.FixedZone(tz, offset)), nil
}
