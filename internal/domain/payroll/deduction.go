package payroll

import "github.com/shopspring/decimal"

// DaysPerMonth is the fixed divisor turning a monthly salary into a daily rate.
const DaysPerMonth = 30

// CalculateSalaryDeduction prices the leave days not covered by the balance at
// salary / DaysPerMonth per day. The result is rounded to two decimals.
func CalculateSalaryDeduction(totalDays, salary, leaveBalance float64) float64 {
	extraDays := decimal.NewFromFloat(totalDays).Sub(decimal.NewFromFloat(leaveBalance))
	if !extraDays.IsPositive() {
		return 0
	}

	dailyRate := decimal.NewFromFloat(salary).Div(decimal.NewFromInt(DaysPerMonth))
	return extraDays.Mul(dailyRate).Round(2).InexactFloat64()
}

// DailyRate is salary / DaysPerMonth rounded to two decimals.
func DailyRate(salary float64) float64 {
	return decimal.NewFromFloat(salary).Div(decimal.NewFromInt(DaysPerMonth)).Round(2).InexactFloat64()
}

// UnpaidDays is the part of totalDays the balance does not cover.
func UnpaidDays(totalDays, leaveBalance float64) float64 {
	extra := decimal.NewFromFloat(totalDays).Sub(decimal.NewFromFloat(leaveBalance))
	if !extra.IsPositive() {
		return 0
	}
	return extra.InexactFloat64()
}
