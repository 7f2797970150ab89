package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

type numFmtKind int

const (
	fmtPlain numFmtKind = iota
	fmtDate
	fmtTime
)

// cellReader turns raw cell values into typed values using the cell type
// and the number format of its style. Style lookups are cached per sheet.
type cellReader struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	kinds    map[int]numFmtKind
}

func (w *Workbook) newCellReader(sheet string) *cellReader {
	cr := &cellReader{file: w.file, sheet: sheet, kinds: map[int]numFmtKind{}}
	if props, err := w.file.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		cr.date1904 = *props.Date1904
	}
	return cr
}

// value returns the typed value of the raw cell text at (col, row), both
// 1-based. Anything that cannot be typed is returned as the raw text.
func (cr *cellReader) value(col, row int, raw string) any {
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return raw
	}
	typ, err := cr.file.GetCellType(cr.sheet, ref)
	if err != nil {
		return raw
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
	case excelize.CellTypeDate:
		if t, ok := parseISODate(raw); ok {
			return t
		}
		return raw
	default:
		return raw
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	switch cr.kind(ref) {
	case fmtDate:
		if t, err := excelize.ExcelDateToTime(f, cr.date1904); err == nil {
			return t.Round(time.Second)
		}
	case fmtTime:
		secs := int(math.Round((f - math.Floor(f)) * 86400))
		if secs == 86400 {
			secs = 0
		}
		if secs%60 != 0 {
			return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
		}
		return fmt.Sprintf("%02d:%02d", secs/3600, secs/60%60)
	}
	return f
}

func (cr *cellReader) kind(ref string) numFmtKind {
	idx, err := cr.file.GetCellStyle(cr.sheet, ref)
	if err != nil || idx == 0 {
		return fmtPlain
	}
	if k, ok := cr.kinds[idx]; ok {
		return k
	}
	k := fmtPlain
	if style, err := cr.file.GetStyle(idx); err == nil {
		if style.CustomNumFmt != nil {
			k = classifyNumFmt(*style.CustomNumFmt)
		} else {
			k = builtinNumFmtKind(style.NumFmt)
		}
	}
	cr.kinds[idx] = k
	return k
}

func builtinNumFmtKind(id int) numFmtKind {
	switch {
	case id >= 14 && id <= 17, id == 22, id >= 27 && id <= 36, id >= 50 && id <= 58:
		return fmtDate
	case id >= 18 && id <= 21, id >= 45 && id <= 47:
		return fmtTime
	}
	return fmtPlain
}

// classifyNumFmt inspects the first section of a custom format code,
// ignoring quoted literals, escaped characters and bracketed modifiers.
func classifyNumFmt(code string) numFmtKind {
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			if ch == ']' {
				inBracket = false
			} else if ch == 'h' || ch == 'H' || ch == 'm' || ch == 'M' || ch == 's' || ch == 'S' {
				// elapsed time: [h], [mm], [ss]
				b.WriteByte('h')
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	tokens := strings.ToLower(b.String())
	if strings.ContainsAny(tokens, "yd") {
		return fmtDate
	}
	if strings.ContainsAny(tokens, "hs") {
		return fmtTime
	}
	return fmtPlain
}

func parseISODate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
