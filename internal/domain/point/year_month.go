package point

import (
	"fmt"
	"time"
)

const yearMonthLayout = "2006-01"

// YearMonth 集計対象の年月
type YearMonth struct {
	Year  int
	Month time.Month
}

// NewYearMonth 新しいYearMonthを作成
func NewYearMonth(year int, month time.Month) (YearMonth, error) {
	if year < 1 || month < time.January || month > time.December {
		return YearMonth{}, fmt.Errorf("invalid year month: %d-%d", year, month)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// ParseYearMonth "2006-01" 形式の文字列からYearMonthを作成
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse(yearMonthLayout, s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year month %q: %w", s, err)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf 日時が属する年月を返す
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Start 月初の日時を返す
func (ym YearMonth) Start(loc *time.Location) time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, loc)
}

// End 翌月初の日時を返す（この時刻は含まない）
func (ym YearMonth) End(loc *time.Location) time.Time {
	return ym.Start(loc).AddDate(0, 1, 0)
}

// Previous 前月を返す
func (ym YearMonth) Previous() YearMonth {
	return YearMonthOf(time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0))
}

// String "2006-01" 形式の文字列を返す
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
