package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/handler/http/response"
)

type AttendanceHandler interface {
	CheckIn(w http.ResponseWriter, r *http.Request)
	CheckOut(w http.ResponseWriter, r *http.Request)
	ReCheckIn(w http.ResponseWriter, r *http.Request)
	ReCheckOut(w http.ResponseWriter, r *http.Request)
	GetToday(w http.ResponseWriter, r *http.Request)
	GetMyAttendance(w http.ResponseWriter, r *http.Request)
	ListByDate(w http.ResponseWriter, r *http.Request)
	GenerateQRCode(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

type punchFunc func(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error)

// punch decodes the optional JSON body, stamps connection details and runs fn.
func (h *attendanceHandlerImpl) punch(w http.ResponseWriter, r *http.Request, fn punchFunc, message string) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	var req attendance.PunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Failed to decode punch request", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	ip := clientIP(r)
	req.IPAddress = &ip
	if ua := r.UserAgent(); ua != "" {
		req.UserAgent = &ua
	}

	result, err := fn(r.Context(), caller, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, message, result)
}

// CheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.CheckIn, "Check in successful")
}

// CheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.CheckOut, "Check out successful")
}

// ReCheckIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReCheckIn(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.ReCheckIn, "Re-check in successful")
}

// ReCheckOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ReCheckOut(w http.ResponseWriter, r *http.Request) {
	h.punch(w, r, h.attendanceService.ReCheckOut, "Re-check out successful")
}

// GetToday implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetToday(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.GetToday(r.Context(), caller)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyAttendance implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyAttendance(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity(w, r)
	if !ok {
		return
	}

	filter := attendance.MyAttendanceFilter{
		Date:      queryString(r, "date"),
		StartDate: queryString(r, "start_date"),
		EndDate:   queryString(r, "end_date"),
		Status:    queryString(r, "status"),
		SortBy:    r.URL.Query().Get("sort_by"),
		SortOrder: r.URL.Query().Get("sort_order"),
	}

	var err error
	if filter.Page, err = queryInt(r, "page"); err != nil {
		response.BadRequest(w, "invalid page parameter", nil)
		return
	}
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		response.BadRequest(w, "invalid limit parameter", nil)
		return
	}

	result, err := h.attendanceService.GetMyAttendance(r.Context(), caller, filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListByDate implements AttendanceHandler.
func (h *attendanceHandlerImpl) ListByDate(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ListByDate(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GenerateQRCode implements AttendanceHandler.
func (h *attendanceHandlerImpl) GenerateQRCode(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GenerateQRCode(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
