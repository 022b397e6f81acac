package docmodel

import (
	"time"

	"github.com/antchfx/xmlquery"
)

// changeDateLayout is the ISO-8601 form tracked-change dates are written in.
// Millisecond precision is part of the round-trip contract.
const changeDateLayout = "2006-01-02T15:04:05.000Z07:00"

// ChangeInfo is the metadata shared by tracked-edit node types: a per-part
// unique id, the author, and the edit timestamp.
type ChangeInfo struct {
	ID     string
	Author string
	Date   time.Time
}

// DateString returns the date as ISO-8601 UTC with millisecond precision,
// the exact form written to the w:date attribute.
func (ci ChangeInfo) DateString() string {
	return ci.Date.UTC().Format(changeDateLayout)
}

// EqualAtMillisecond reports whether two change records carry the same id,
// author, and timestamp at millisecond granularity.
func (ci ChangeInfo) EqualAtMillisecond(other ChangeInfo) bool {
	return ci.ID == other.ID &&
		ci.Author == other.Author &&
		ci.Date.UTC().Truncate(time.Millisecond).Equal(other.Date.UTC().Truncate(time.Millisecond))
}

// ExtractChangeInfo reads the w:id, w:author, and w:date attributes from a
// tracked-change element. A missing attribute or unparseable date fails with
// MalformedChangeMetadataError.
func ExtractChangeInfo(n *xmlquery.Node) (ChangeInfo, error) {
	id := Attr(n, "id")
	if id == "" {
		return ChangeInfo{}, &MalformedChangeMetadataError{Attribute: "w:id"}
	}
	author := Attr(n, "author")
	if author == "" {
		return ChangeInfo{}, &MalformedChangeMetadataError{Attribute: "w:author"}
	}
	dateStr := Attr(n, "date")
	if dateStr == "" {
		return ChangeInfo{}, &MalformedChangeMetadataError{Attribute: "w:date"}
	}

	date, err := time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return ChangeInfo{}, &MalformedChangeMetadataError{Attribute: "w:date", Value: dateStr, Cause: err}
	}

	return ChangeInfo{ID: id, Author: author, Date: date}, nil
}
