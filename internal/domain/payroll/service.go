package payroll

import "context"

type PayrollService interface {
	PreviewDeduction(ctx context.Context, req DeductionPreviewRequest) (DeductionPreviewResponse, error)
}
