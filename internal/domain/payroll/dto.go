package payroll

type DeductionPreviewRequest struct {
	UserID string  `json:"-"`
	Days   float64 `json:"days"`
}

func (r *DeductionPreviewRequest) Validate() error {
	if r.Days <= 0 {
		return ErrInvalidDays
	}
	return nil
}

type DeductionPreviewResponse struct {
	UserID          string  `json:"user_id"`
	Days            float64 `json:"days"`
	LeaveBalance    float64 `json:"leave_balance"`
	UnpaidDays      float64 `json:"unpaid_days"`
	Salary          float64 `json:"salary"`
	DailyRate       float64 `json:"daily_rate"`
	SalaryDeduction float64 `json:"salary_deduction"`
}
