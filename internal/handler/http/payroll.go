package http

import (
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type PayrollHandler interface {
	PreviewDeduction(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// PreviewDeduction handles GET /payroll/deduction-preview?days=&user_id=
// Only admins may preview for another user.
func (h *payrollHandlerImpl) PreviewDeduction(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	days, err := strconv.ParseFloat(r.URL.Query().Get("days"), 64)
	if err != nil {
		response.HandleError(w, payroll.ErrInvalidDays)
		return
	}

	req := payroll.DeductionPreviewRequest{UserID: caller.UserID, Days: days}
	if target := r.URL.Query().Get("user_id"); target != "" && target != caller.UserID {
		if !caller.IsAdmin() {
			response.HandleError(w, user.ErrAdminPrivilegeRequired)
			return
		}
		req.UserID = target
	}

	result, err := h.payrollService.PreviewDeduction(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
