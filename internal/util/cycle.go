package util

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"time"
)

const (
	UnknownCycle   = "unknown"
	UnknownVersion = "0.0"
)

var reContextDate = regexp.MustCompile(`(\d{2}-[A-Za-z]{3}-\d{2})`)

type ParsedFilename struct {
	Cycle   string
	Version string
	Major   string
	Minor   string
	Matched bool
}

var filenamePatterns sync.Map // prefix -> *regexp.Regexp

// FilenamePattern matches <prefix>_<cycle:4 digits>_v<major>_<minor>. The
// compiled pattern is cached per prefix.
func FilenamePattern(prefix string) *regexp.Regexp {
	if re, ok := filenamePatterns.Load(prefix); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + `_(\d{4})_v(\d+)_(\d+)`)
	actual, _ := filenamePatterns.LoadOrStore(prefix, re)
	return actual.(*regexp.Regexp)
}

// ParseFilename extracts cycle and version from a document file name. When
// the pattern does not match, cycle is "unknown" and version "0.0".
func ParseFilename(prefix, path string) ParsedFilename {
	m := FilenamePattern(prefix).FindStringSubmatch(filepath.Base(path))
	if len(m) < 4 {
		return ParsedFilename{Cycle: UnknownCycle, Version: UnknownVersion}
	}
	return ParsedFilename{
		Cycle:   m[1],
		Version: m[2] + "." + m[3],
		Major:   m[2],
		Minor:   m[3],
		Matched: true,
	}
}

// CanonicalFilename is the on-disk name used for downloaded revisions.
func CanonicalFilename(prefix, cycle, major, minor string) string {
	return fmt.Sprintf("%s_%s_v%s_%s.xlsx", prefix, cycle, major, minor)
}

// CycleDate approximates the first day of the month encoded in a YYMM cycle.
// AIRAC cycles do not start on the first of the month, so this is only a
// placeholder when the publication page gives no date.
func CycleDate(cycle string) *string {
	if len(cycle) != 4 {
		return nil
	}
	yy, err := strconv.Atoi(cycle[:2])
	if err != nil {
		return nil
	}
	mm, err := strconv.Atoi(cycle[2:])
	if err != nil || mm < 1 || mm > 12 {
		return nil
	}
	return StringPtr(fmt.Sprintf("%04d-%02d-01", 2000+yy, mm))
}

// ContextDate finds a DD-MMM-YY date (30-OCT-25) in free text and returns it
// as YYYY-MM-DD.
func ContextDate(text string) *string {
	m := reContextDate.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	t, err := time.Parse("02-Jan-06", m[1])
	if err != nil {
		return nil
	}
	return StringPtr(t.Format("2006-01-02"))
}
