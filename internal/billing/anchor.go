// Package billing содержит чистую календарную арифметику расписания
// списаний. Никакого I/O.
package billing

import "time"

// NextAnchor возвращает ближайшее наступление дня списания billingDay
// строго после ref. Если день списания в текущем месяце еще не прошел,
// возвращается он, иначе — тот же день следующего месяца.
// Для месяцев короче billingDay день прижимается к последнему дню
// месяца (31-е в феврале -> 28/29 февраля).
func NextAnchor(billingDay int, ref time.Time) time.Time {
	if billingDay < 1 {
		billingDay = 1
	}

	candidate := anchorInMonth(billingDay, ref.Year(), ref.Month(), ref.Location())
	if candidate.After(ref) {
		return candidate
	}

	// День в текущем месяце уже прошел, переносим на следующий месяц.
	// Не используем AddDate: 31 января + месяц "перекатился" бы в март.
	year, month := ref.Year(), ref.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}
	return anchorInMonth(billingDay, year, month, ref.Location())
}

// anchorInMonth возвращает день billingDay в указанном месяце,
// прижатый к последнему дню месяца, если месяц короче
func anchorInMonth(billingDay, year int, month time.Month, loc *time.Location) time.Time {
	day := billingDay
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

// daysInMonth возвращает число дней в месяце
func daysInMonth(year int, month time.Month) int {
	// Нулевой день следующего месяца — последний день текущего
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
