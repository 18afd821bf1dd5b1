package eda

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// dateFormats mirror the strict formats tried first during coercion:
// %Y-%m-%d, %m/%d/%Y, %d-%m-%Y, %Y/%m/%d, %d/%m/%Y.
var dateFormats = []string{"2006-1-2", "1/2/2006", "2-1-2006", "2006/1/2", "2/1/2006"}

// genericDateLayouts are tried only when no strict format wins.
var genericDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"Jan 2, 2006",
	"2 Jan 2006",
	"January 2, 2006",
}

// dateParseRate is the share of rows that must parse for a column to become datetime.
const dateParseRate = 0.9

// InferTypes assigns a Kind to every column of f and fills Num/Time.
func InferTypes(f *Frame) {
	for _, c := range f.Columns {
		inferColumn(c)
	}
	CoerceDatetime(f)
}

func inferColumn(c *Column) {
	nonMissing := 0
	allNum, allInt, allBool := true, true, true
	nums := make([]float64, len(c.Raw))
	for i, raw := range c.Raw {
		if c.Missing[i] {
			nums[i] = math.NaN()
			continue
		}
		nonMissing++
		s := strings.TrimSpace(raw)
		if allBool && !isBool(s) {
			allBool = false
		}
		if !allNum {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			allNum = false
			continue
		}
		nums[i] = v
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			allInt = false
		}
	}

	switch {
	case nonMissing == 0:
		c.Kind = KindObject
	case allBool && nonMissing == len(c.Raw):
		c.Kind = KindBool
	case allNum:
		c.Num = nums
		if allInt && nonMissing == len(c.Raw) {
			c.Kind = KindInt
		} else {
			c.Kind = KindFloat
		}
	default:
		c.Kind = KindObject
	}
}

func isBool(s string) bool {
	switch s {
	case "true", "false", "True", "False", "TRUE", "FALSE":
		return true
	}
	return false
}

// CoerceDatetime converts object columns to datetime when more than 90% of
// rows parse with a single strict format, or failing that with the generic
// layouts. Cells that fail to parse become missing.
func CoerceDatetime(f *Frame) {
	for _, c := range f.Columns {
		if c.Kind != KindObject || len(c.Raw) == 0 {
			continue
		}
		if parsed, ok := parseWithLayouts(c, dateFormats, true); ok {
			applyDatetime(c, parsed)
			continue
		}
		if parsed, ok := parseWithLayouts(c, genericDateLayouts, false); ok {
			applyDatetime(c, parsed)
		}
	}
}

// parseWithLayouts tries the layouts one at a time when strict is true, and
// any layout per cell otherwise.
func parseWithLayouts(c *Column, layouts []string, strict bool) ([]*time.Time, bool) {
	if strict {
		for _, layout := range layouts {
			parsed, ok := parseRate(c, []string{layout})
			if ok {
				return parsed, true
			}
		}
		return nil, false
	}
	return parseRate(c, layouts)
}

func parseRate(c *Column, layouts []string) ([]*time.Time, bool) {
	parsed := make([]*time.Time, len(c.Raw))
	hits := 0
	for i, raw := range c.Raw {
		if c.Missing[i] {
			continue
		}
		s := strings.TrimSpace(raw)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				tt := t
				parsed[i] = &tt
				hits++
				break
			}
		}
	}
	return parsed, float64(hits)/float64(len(c.Raw)) > dateParseRate
}

func applyDatetime(c *Column, parsed []*time.Time) {
	c.Kind = KindDatetime
	c.Time = make([]time.Time, len(parsed))
	for i, p := range parsed {
		if p == nil {
			c.Missing[i] = true
			continue
		}
		c.Time[i] = *p
	}
}
