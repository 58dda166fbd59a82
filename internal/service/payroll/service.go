package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
)

type PayrollServiceImpl struct {
	userRepo user.UserRepository
}

func NewPayrollService(userRepo user.UserRepository) payroll.PayrollService {
	return &PayrollServiceImpl{userRepo: userRepo}
}

// PreviewDeduction implements payroll.PayrollService.
func (s *PayrollServiceImpl) PreviewDeduction(ctx context.Context, req payroll.DeductionPreviewRequest) (payroll.DeductionPreviewResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.DeductionPreviewResponse{}, err
	}

	u, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return payroll.DeductionPreviewResponse{}, err
		}
		return payroll.DeductionPreviewResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	resp := payroll.DeductionPreviewResponse{
		UserID:    u.ID,
		Days:      req.Days,
		Salary:    u.Salary,
		DailyRate: payroll.DailyRate(u.Salary),
	}

	// Leave approvals never charge admins.
	if !u.HasLeaveBalance() {
		return resp, nil
	}

	resp.LeaveBalance = u.LeaveBalance
	resp.UnpaidDays = payroll.UnpaidDays(req.Days, u.LeaveBalance)
	resp.SalaryDeduction = payroll.CalculateSalaryDeduction(req.Days, u.Salary, u.LeaveBalance)
	return resp, nil
}
