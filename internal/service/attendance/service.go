package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/geo"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/qr"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/validator"
	"github.com/google/uuid"
)

// Options are the check-in rules of the deployment.
type Options struct {
	LateThreshold attendance.LateThreshold
	// Location decides where a calendar day starts and ends.
	Location *time.Location
	// Fence, when set, restricts check-in and re-check-in to the office radius.
	Fence     *geo.Fence
	RequireQR bool
}

type AttendanceServiceImpl struct {
	attendance.AttendanceRepository
	jwtService jwt.Service
	opts       Options
	now        func() time.Time
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	format := t.In(loc).Format("2006-01-02 15:04:05")
	return &format
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	return a.punch(ctx, identity, attendance.ActionCheckIn, req)
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	return a.punch(ctx, identity, attendance.ActionCheckOut, req)
}

// ReCheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReCheckIn(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	return a.punch(ctx, identity, attendance.ActionReCheckIn, req)
}

// ReCheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ReCheckOut(ctx context.Context, identity user.Identity, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	return a.punch(ctx, identity, attendance.ActionReCheckOut, req)
}

func (a *AttendanceServiceImpl) punch(ctx context.Context, identity user.Identity, action attendance.Action, req attendance.PunchRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().In(a.opts.Location)
	key := attendance.Key{
		UserID:   identity.UserID,
		UserType: identity.UserType,
		Date:     attendance.DayOf(now, a.opts.Location),
	}

	if err := a.checkPolicy(action, req, key.Date); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	current, err := a.AttendanceRepository.GetByKey(ctx, key)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	state := attendance.StateNotStarted
	if current != nil {
		state = current.State()
	}
	if err := state.Check(action); err != nil {
		metrics.RecordAttendanceRejection(action.String())
		return attendance.AttendanceResponse{}, err
	}

	p := attendance.Punch{
		Time:       now,
		Location:   req.Location,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		IPAddress:  req.IPAddress,
		DeviceInfo: req.DeviceInfo,
	}
	if p.DeviceInfo == nil {
		p.DeviceInfo = req.UserAgent
	}

	var saved attendance.Attendance
	if action == attendance.ActionCheckIn {
		id, err := uuid.NewV7()
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to generate attendance id: %w", err)
		}
		saved, err = a.AttendanceRepository.CreateCheckIn(ctx, attendance.NewCheckIn(id.String(), key, p, a.opts.LateThreshold))
	} else {
		saved, err = a.AttendanceRepository.RecordPunch(ctx, key, action, p)
	}
	if err != nil {
		if errors.Is(err, attendance.ErrStateChanged) {
			return attendance.AttendanceResponse{}, a.explainConflict(ctx, key, action)
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to record %s: %w", action, err)
	}

	metrics.RecordAttendanceAction(action.String())
	return mapAttendanceToResponse(saved, a.opts.Location), nil
}

// checkPolicy applies the optional QR and geofence rules. Only the actions that bring a
// user into the office are checked.
func (a *AttendanceServiceImpl) checkPolicy(action attendance.Action, req attendance.PunchRequest, day time.Time) error {
	if action != attendance.ActionCheckIn && action != attendance.ActionReCheckIn {
		return nil
	}

	if a.opts.RequireQR && action == attendance.ActionCheckIn {
		if req.QRToken == nil || *req.QRToken == "" {
			return attendance.ErrInvalidQRToken
		}
		if err := a.jwtService.ValidateAttendanceQRToken(*req.QRToken, day); err != nil {
			return attendance.ErrInvalidQRToken
		}
	}

	if a.opts.Fence != nil {
		if req.Latitude == nil || req.Longitude == nil {
			return attendance.ErrLocationRequired
		}
		if !a.opts.Fence.Contains(*req.Latitude, *req.Longitude) {
			return attendance.ErrOutsideGeofence
		}
	}

	return nil
}

// explainConflict re-reads the record after a lost race and reports the transition error
// the winning write caused.
func (a *AttendanceServiceImpl) explainConflict(ctx context.Context, key attendance.Key, action attendance.Action) error {
	slog.Warn("attendance punch lost a concurrent update", "user_id", key.UserID, "action", action.String())

	current, err := a.AttendanceRepository.GetByKey(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to reload attendance: %w", err)
	}

	state := attendance.StateNotStarted
	if current != nil {
		state = current.State()
	}
	metrics.RecordAttendanceRejection(action.String())
	if err := state.Check(action); err != nil {
		return err
	}
	return attendance.ErrStateChanged
}

// GetToday implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context, identity user.Identity) (attendance.TodayAttendanceResponse, error) {
	today := attendance.DayOf(a.now(), a.opts.Location)

	record, err := a.AttendanceRepository.GetByKey(ctx, attendance.Key{
		UserID:   identity.UserID,
		UserType: identity.UserType,
		Date:     today,
	})
	if err != nil {
		return attendance.TodayAttendanceResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	resp := attendance.TodayAttendanceResponse{
		Date:          today.Format("2006-01-02"),
		LateThreshold: a.opts.LateThreshold.String(),
		Gates:         attendance.StateNotStarted.Gates(),
	}
	if record != nil {
		mapped := mapAttendanceToResponse(*record, a.opts.Location)
		resp.Attendance = &mapped
		resp.Gates = record.State().Gates()
	}

	return resp, nil
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, identity user.Identity, filter attendance.MyAttendanceFilter) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}

	attendances, total, err := a.AttendanceRepository.GetMyAttendance(ctx, identity.UserID, identity.UserType, filter)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to get my attendance: %w", err)
	}

	// Map to response
	responses := make([]attendance.AttendanceResponse, 0, len(attendances))
	for _, att := range attendances {
		responses = append(responses, mapAttendanceToResponse(att, a.opts.Location))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min((filter.Page)*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return attendance.ListAttendanceResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		TotalPages:  totalPages,
		Showing:     showing,
		Attendances: responses,
	}, nil
}

// ListByDate implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListByDate(ctx context.Context, date string) ([]attendance.AttendanceResponse, error) {
	var day time.Time
	if date == "" {
		day = attendance.DayOf(a.now(), a.opts.Location)
	} else {
		parsed, err := time.ParseInLocation("2006-01-02", date, a.opts.Location)
		if err != nil {
			return nil, validator.ValidationErrors{{Field: "date", Message: "date must be in YYYY-MM-DD format"}}
		}
		day = parsed
	}

	records, err := a.AttendanceRepository.ListByDateRange(ctx, day, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(records))
	for _, att := range records {
		responses = append(responses, mapAttendanceToResponse(att, a.opts.Location))
	}
	return responses, nil
}

// GenerateQRCode implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GenerateQRCode(ctx context.Context) (attendance.QRCodeResponse, error) {
	today := attendance.DayOf(a.now(), a.opts.Location)
	expiresAt := today.AddDate(0, 0, 1)

	token, err := a.jwtService.GenerateAttendanceQRToken(today, expiresAt)
	if err != nil {
		return attendance.QRCodeResponse{}, fmt.Errorf("failed to generate qr token: %w", err)
	}

	image, err := qr.EncodeDataURI(token, qr.DefaultSize)
	if err != nil {
		return attendance.QRCodeResponse{}, err
	}

	return attendance.QRCodeResponse{
		Image:     image,
		Token:     token,
		Date:      today.Format("2006-01-02"),
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func mapPunchToResponse(p *attendance.Punch, loc *time.Location) *attendance.PunchResponse {
	if p == nil {
		return nil
	}
	return &attendance.PunchResponse{
		Time:       p.Time.In(loc).Format("2006-01-02 15:04:05"),
		Location:   p.Location,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		IPAddress:  p.IPAddress,
		DeviceInfo: p.DeviceInfo,
	}
}

func punchTime(p *attendance.Punch) *time.Time {
	if p == nil {
		return nil
	}
	return &p.Time
}

// mapAttendanceToResponse converts an Attendance entity to AttendanceResponse
func mapAttendanceToResponse(att attendance.Attendance, loc *time.Location) attendance.AttendanceResponse {
	state := att.State()

	return attendance.AttendanceResponse{
		ID:                 att.ID,
		UserID:             att.UserID,
		UserType:           string(att.UserType),
		Date:               att.Date.Format("2006-01-02"),
		CheckIn:            mapPunchToResponse(att.CheckIn(), loc),
		CheckOut:           mapPunchToResponse(att.CheckOut(), loc),
		ReCheckIn:          mapPunchToResponse(att.ReCheckIn(), loc),
		ReCheckOut:         mapPunchToResponse(att.ReCheckOut(), loc),
		CheckInTime:        timePtrToString(punchTime(att.CheckIn()), loc),
		CheckOutTime:       timePtrToString(punchTime(att.CheckOut()), loc),
		ReCheckInTime:      timePtrToString(punchTime(att.ReCheckIn()), loc),
		ReCheckOutTime:     timePtrToString(punchTime(att.ReCheckOut()), loc),
		State:              state.String(),
		Status:             att.Status(),
		IsLate:             att.IsLate,
		LateMinutes:        att.LateMinutes,
		FirstSessionHours:  att.FirstSessionHours(),
		SecondSessionHours: att.SecondSessionHours(),
		TotalHours:         att.TotalHours(),
		Gates:              state.Gates(),
		CreatedAt:          att.CreatedAt.In(loc).Format("2006-01-02 15:04:05"),
		UpdatedAt:          att.UpdatedAt.In(loc).Format("2006-01-02 15:04:05"),
	}
}

func NewAttendanceService(
	attendanceRepo attendance.AttendanceRepository,
	jwtService jwt.Service,
	opts Options,
) attendance.AttendanceService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &AttendanceServiceImpl{
		AttendanceRepository: attendanceRepo,
		jwtService:           jwtService,
		opts:                 opts,
		now:                  time.Now,
	}
}
