package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// punchPrefixes are the column prefixes of each action, in action order.
var punchPrefixes = [...]string{"check_in", "check_out", "re_check_in", "re_check_out"}

var attendanceColumns = func() string {
	cols := []string{"id", "user_id", "user_type", "date"}
	for _, p := range punchPrefixes {
		cols = append(cols, p+"_time", p+"_location", p+"_latitude", p+"_longitude", p+"_ip", p+"_device")
	}
	cols = append(cols, "is_late", "late_minutes", "created_at", "updated_at")
	return strings.Join(cols, ", ")
}()

type attendanceRepository struct {
	db       *database.DB
	location *time.Location
}

func NewAttendanceRepository(db *database.DB, location *time.Location) attendance.AttendanceRepository {
	if location == nil {
		location = time.Local
	}
	return &attendanceRepository{db: db, location: location}
}

type punchRow struct {
	Time       *time.Time
	Location   *string
	Latitude   *float64
	Longitude  *float64
	IPAddress  *string
	DeviceInfo *string
}

func (p *punchRow) punch() *attendance.Punch {
	if p.Time == nil {
		return nil
	}
	return &attendance.Punch{
		Time:       *p.Time,
		Location:   p.Location,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		IPAddress:  p.IPAddress,
		DeviceInfo: p.DeviceInfo,
	}
}

func (a *attendanceRepository) scan(row pgx.Row) (attendance.Attendance, error) {
	var (
		att     attendance.Attendance
		punches [4]punchRow
	)

	dest := []interface{}{&att.ID, &att.UserID, &att.UserType, &att.Date}
	for i := range punches {
		p := &punches[i]
		dest = append(dest, &p.Time, &p.Location, &p.Latitude, &p.Longitude, &p.IPAddress, &p.DeviceInfo)
	}
	dest = append(dest, &att.IsLate, &att.LateMinutes, &att.CreatedAt, &att.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return attendance.Attendance{}, err
	}

	att.Date = localDate(att.Date, a.location)
	if err := att.RestorePunches(punches[0].punch(), punches[1].punch(), punches[2].punch(), punches[3].punch()); err != nil {
		return attendance.Attendance{}, fmt.Errorf("attendance %s: %w", att.ID, err)
	}
	return att, nil
}

// GetByKey implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByKey(ctx context.Context, key attendance.Key) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances WHERE user_id = $1 AND user_type = $2 AND date = $3`

	att, err := a.scan(q.QueryRow(ctx, query, key.UserID, string(key.UserType), key.Date.Format(dateLayout)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	return &att, nil
}

// CreateCheckIn implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateCheckIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	checkIn := record.CheckIn()
	if checkIn == nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", attendance.ErrNoCheckInFound)
	}

	// The unique (user_id, user_type, date) constraint decides concurrent check-ins.
	query := `
		INSERT INTO attendances (
			id, user_id, user_type, date,
			check_in_time, check_in_location, check_in_latitude, check_in_longitude, check_in_ip, check_in_device,
			is_late, late_minutes, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, user_type, date) DO NOTHING
		RETURNING ` + attendanceColumns

	created, err := a.scan(q.QueryRow(ctx, query,
		record.ID,
		record.UserID,
		string(record.UserType),
		record.Date.Format(dateLayout),
		checkIn.Time,
		checkIn.Location,
		checkIn.Latitude,
		checkIn.Longitude,
		checkIn.IPAddress,
		checkIn.DeviceInfo,
		record.IsLate,
		record.LateMinutes,
		record.CreatedAt,
		record.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrStateChanged
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return created, nil
}

// statePredicate matches rows whose recorded punches put them exactly in state s.
func statePredicate(s attendance.State) string {
	var conds []string
	for i, p := range punchPrefixes {
		if i < int(s) {
			conds = append(conds, p+"_time IS NOT NULL")
		} else {
			conds = append(conds, p+"_time IS NULL")
		}
	}
	return strings.Join(conds, " AND ")
}

// RecordPunch implements attendance.AttendanceRepository.
func (a *attendanceRepository) RecordPunch(ctx context.Context, key attendance.Key, action attendance.Action, p attendance.Punch) (attendance.Attendance, error) {
	if int(action) < 0 || int(action) >= len(punchPrefixes) {
		return attendance.Attendance{}, fmt.Errorf("unknown attendance action %d", int(action))
	}
	q := GetQuerier(ctx, a.db)

	prefix := punchPrefixes[action]
	query := fmt.Sprintf(`
		UPDATE attendances
		SET %[1]s_time = $4, %[1]s_location = $5, %[1]s_latitude = $6, %[1]s_longitude = $7,
			%[1]s_ip = $8, %[1]s_device = $9, updated_at = $4
		WHERE user_id = $1 AND user_type = $2 AND date = $3 AND %[2]s
		RETURNING %[3]s
	`, prefix, statePredicate(action.Requires()), attendanceColumns)

	updated, err := a.scan(q.QueryRow(ctx, query,
		key.UserID,
		string(key.UserType),
		key.Date.Format(dateLayout),
		p.Time,
		p.Location,
		p.Latitude,
		p.Longitude,
		p.IPAddress,
		p.DeviceInfo,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrStateChanged
		}
		return attendance.Attendance{}, fmt.Errorf("failed to record %s: %w", action, err)
	}
	return updated, nil
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetMyAttendance(ctx context.Context, userID string, userType user.UserType, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	// Build WHERE clause
	baseWhere := "user_id = $1 AND user_type = $2"
	args := []interface{}{userID, string(userType)}
	argIdx := 3

	if filter.Date != nil && *filter.Date != "" {
		baseWhere += fmt.Sprintf(" AND date = $%d", argIdx)
		args = append(args, *filter.Date)
		argIdx++
	}

	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	// Status is derived from the punches, not stored
	if filter.Status != nil {
		switch *filter.Status {
		case attendance.StatusReCheckedIn:
			baseWhere += " AND " + statePredicate(attendance.StateReCheckedIn)
		case attendance.StatusLate:
			baseWhere += " AND is_late AND NOT (" + statePredicate(attendance.StateReCheckedIn) + ")"
		case attendance.StatusPresent:
			baseWhere += " AND NOT is_late AND NOT (" + statePredicate(attendance.StateReCheckedIn) + ")"
		}
	}

	countQuery := "SELECT COUNT(*) FROM attendances WHERE " + baseWhere
	var total int64
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	orderByField := "date"
	if filter.SortBy == "check_in_time" {
		orderByField = "check_in_time"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, orderByField, sortOrder, argIdx, argIdx+1)

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	offset := (max(filter.Page, 1) - 1) * limit
	args = append(args, limit, offset)

	attendances, err := a.query(ctx, q, selectQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return attendances, total, nil
}

// ListByDateRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE date >= $1 AND date <= $2
		ORDER BY date, user_id`

	return a.query(ctx, q, query, from.Format(dateLayout), to.Format(dateLayout))
}

func (a *attendanceRepository) query(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]attendance.Attendance, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer rows.Close()

	attendances := make([]attendance.Attendance, 0)
	for rows.Next() {
		att, err := a.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		attendances = append(attendances, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", err)
	}
	return attendances, nil
}
