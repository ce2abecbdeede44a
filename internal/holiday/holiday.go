package holiday

import "time"

// Day is a calendar day independent of time-of-day. All bookings are
// judged against the server's local calendar day.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// DayOf truncates a timestamp to its calendar day.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

func (d Day) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local).Weekday()
}

// fixedHoliday is a public holiday that falls on the same month/day
// every year.
type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

// Moroccan civil holidays.
var fixed = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.January, 11, "Proclamation of Independence"},
	{time.May, 1, "Labour Day"},
	{time.July, 30, "Throne Day"},
	{time.August, 14, "Oued Ed-Dahab Allegiance"},
	{time.August, 20, "Revolution of the King and the People"},
	{time.August, 21, "Youth Day"},
	{time.November, 6, "Green March"},
	{time.November, 18, "Independence Day"},
}

// FixedHolidays returns the civil holidays for a year. The set is the
// same month/day list for every year, known or not.
func FixedHolidays(year int) []Day {
	days := make([]Day, 0, len(fixed))
	for _, h := range fixed {
		days = append(days, Day{Year: year, Month: h.month, Day: h.day})
	}
	return days
}

// Islamic holidays follow the Hijri calendar and drift about eleven
// days earlier each Gregorian year, so their dates come from a
// maintained table rather than arithmetic. The table holds the dates
// observed in Morocco; update it when the kingdom publishes the next
// year's calendar.
//
// Table version 2, maintained range lunarMinYear..lunarMaxYear.
const (
	lunarMinYear = 2024
	lunarMaxYear = 2027
)

var lunar = map[int][]struct {
	month time.Month
	day   int
	name  string
}{
	2024: {
		{time.April, 10, "Eid al-Fitr"},
		{time.April, 11, "Eid al-Fitr (2nd day)"},
		{time.June, 17, "Eid al-Adha"},
		{time.June, 18, "Eid al-Adha (2nd day)"},
		{time.July, 8, "Fatih Muharram"},
		{time.September, 16, "Eid al-Mawlid"},
		{time.September, 17, "Eid al-Mawlid (2nd day)"},
	},
	2025: {
		{time.March, 31, "Eid al-Fitr"},
		{time.April, 1, "Eid al-Fitr (2nd day)"},
		{time.June, 7, "Eid al-Adha"},
		{time.June, 8, "Eid al-Adha (2nd day)"},
		{time.June, 27, "Fatih Muharram"},
		{time.September, 5, "Eid al-Mawlid"},
		{time.September, 6, "Eid al-Mawlid (2nd day)"},
	},
	2026: {
		{time.March, 20, "Eid al-Fitr"},
		{time.March, 21, "Eid al-Fitr (2nd day)"},
		{time.May, 27, "Eid al-Adha"},
		{time.May, 28, "Eid al-Adha (2nd day)"},
		{time.June, 17, "Fatih Muharram"},
		{time.August, 26, "Eid al-Mawlid"},
		{time.August, 27, "Eid al-Mawlid (2nd day)"},
	},
	2027: {
		{time.March, 10, "Eid al-Fitr"},
		{time.March, 11, "Eid al-Fitr (2nd day)"},
		{time.May, 16, "Eid al-Adha"},
		{time.May, 17, "Eid al-Adha (2nd day)"},
		{time.June, 6, "Fatih Muharram"},
		{time.August, 15, "Eid al-Mawlid"},
		{time.August, 16, "Eid al-Mawlid (2nd day)"},
	},
}

// VariableHolidays returns every lunar-calendar holiday in the
// maintained table. Years outside the maintained range contribute
// nothing; callers that care should check CoveredYear first.
func VariableHolidays() []Day {
	var days []Day
	for year := lunarMinYear; year <= lunarMaxYear; year++ {
		for _, h := range lunar[year] {
			days = append(days, Day{Year: year, Month: h.month, Day: h.day})
		}
	}
	return days
}

// Coverage reports the year range the lunar holiday table is
// maintained for.
func Coverage() (minYear, maxYear int) {
	return lunarMinYear, lunarMaxYear
}

// CoveredYear reports whether the lunar table covers the given year.
// For an uncovered year IsForbidden still answers, but it can only see
// weekends and fixed holidays.
func CoveredYear(year int) bool {
	return year >= lunarMinYear && year <= lunarMaxYear
}

// Name returns the holiday name for a day, if any.
func Name(d Day) (string, bool) {
	for _, h := range fixed {
		if h.month == d.Month && h.day == d.Day {
			return h.name, true
		}
	}
	for _, h := range lunar[d.Year] {
		if h.month == d.Month && h.day == d.Day {
			return h.name, true
		}
	}
	return "", false
}

// IsForbidden reports whether no appointment may be booked on the
// calendar day of t: weekends, fixed holidays and known lunar
// holidays. Time-of-day is ignored.
func IsForbidden(t time.Time) bool {
	return IsForbiddenDay(DayOf(t))
}

// IsForbiddenDay is IsForbidden on an already-truncated day.
func IsForbiddenDay(d Day) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	_, holiday := Name(d)
	return holiday
}
