package domain

import (
	"fmt"
	"time"
)

// DatePrecision indicates how much of a publication date PubMed actually
// supplied. Records frequently carry a year with no month or day; those
// components are never guessed.
type DatePrecision int

const (
	// PrecisionNone means no usable date was present.
	PrecisionNone DatePrecision = iota
	// PrecisionYear means only the year is known.
	PrecisionYear
	// PrecisionMonth means year and month are known.
	PrecisionMonth
	// PrecisionDay means the full date is known.
	PrecisionDay
)

// PartialDate is a publication date with explicit precision.
type PartialDate struct {
	Year      int
	Month     time.Month
	Day       int
	Precision DatePrecision
}

// YearDate creates a year-only PartialDate.
func YearDate(year int) PartialDate {
	return PartialDate{Year: year, Precision: PrecisionYear}
}

// MonthDate creates a PartialDate with year and month.
func MonthDate(year int, month time.Month) PartialDate {
	return PartialDate{Year: year, Month: month, Precision: PrecisionMonth}
}

// FullDate creates a PartialDate with year, month, and day.
func FullDate(year int, month time.Month, day int) PartialDate {
	return PartialDate{Year: year, Month: month, Day: day, Precision: PrecisionDay}
}

// IsZero returns true if no date component is known.
func (d PartialDate) IsZero() bool {
	return d.Precision == PrecisionNone
}

// String renders the date at its known precision, in the display form used
// by PubMed records: "Mar 15, 2023", "Mar 2023", or "2023".
func (d PartialDate) String() string {
	switch d.Precision {
	case PrecisionDay:
		return fmt.Sprintf("%s %d, %d", d.Month.String()[:3], d.Day, d.Year)
	case PrecisionMonth:
		return fmt.Sprintf("%s %d", d.Month.String()[:3], d.Year)
	case PrecisionYear:
		return fmt.Sprintf("%d", d.Year)
	default:
		return ""
	}
}

// MarshalJSON renders the date as its display string.
func (d PartialDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}
