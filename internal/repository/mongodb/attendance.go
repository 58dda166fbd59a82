package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// punchFields are the document fields of each action, in action order.
var punchFields = [...]string{"check_in", "check_out", "re_check_in", "re_check_out"}

type punchDocument struct {
	Time       time.Time `bson:"time"`
	Location   *string   `bson:"location,omitempty"`
	Latitude   *float64  `bson:"latitude,omitempty"`
	Longitude  *float64  `bson:"longitude,omitempty"`
	IPAddress  *string   `bson:"ip_address,omitempty"`
	DeviceInfo *string   `bson:"device_info,omitempty"`
}

func newPunchDocument(p *attendance.Punch) *punchDocument {
	if p == nil {
		return nil
	}
	return &punchDocument{
		Time:       p.Time,
		Location:   p.Location,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		IPAddress:  p.IPAddress,
		DeviceInfo: p.DeviceInfo,
	}
}

func (d *punchDocument) toPunch() *attendance.Punch {
	if d == nil {
		return nil
	}
	return &attendance.Punch{
		Time:       d.Time,
		Location:   d.Location,
		Latitude:   d.Latitude,
		Longitude:  d.Longitude,
		IPAddress:  d.IPAddress,
		DeviceInfo: d.DeviceInfo,
	}
}

type attendanceDocument struct {
	ID          string         `bson:"_id"`
	UserID      string         `bson:"user_id"`
	UserType    string         `bson:"user_type"`
	Date        string         `bson:"date"`
	CheckIn     *punchDocument `bson:"check_in,omitempty"`
	CheckOut    *punchDocument `bson:"check_out,omitempty"`
	ReCheckIn   *punchDocument `bson:"re_check_in,omitempty"`
	ReCheckOut  *punchDocument `bson:"re_check_out,omitempty"`
	IsLate      bool           `bson:"is_late"`
	LateMinutes int            `bson:"late_minutes"`
	CreatedAt   time.Time      `bson:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at"`
}

type attendanceRepository struct {
	collection *mongo.Collection
	location   *time.Location
}

func NewAttendanceRepository(db *database.MongoDB, location *time.Location) attendance.AttendanceRepository {
	if location == nil {
		location = time.Local
	}
	return &attendanceRepository{
		collection: db.Collection(database.CollectionAttendances),
		location:   location,
	}
}

func (r *attendanceRepository) toEntity(d attendanceDocument) (attendance.Attendance, error) {
	date, err := parseDate(d.Date, r.location)
	if err != nil {
		return attendance.Attendance{}, err
	}
	att := attendance.Attendance{
		ID:          d.ID,
		UserID:      d.UserID,
		UserType:    user.UserType(d.UserType),
		Date:        date,
		IsLate:      d.IsLate,
		LateMinutes: d.LateMinutes,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if err := att.RestorePunches(d.CheckIn.toPunch(), d.CheckOut.toPunch(), d.ReCheckIn.toPunch(), d.ReCheckOut.toPunch()); err != nil {
		return attendance.Attendance{}, fmt.Errorf("attendance %s: %w", d.ID, err)
	}
	return att, nil
}

func keyFilter(key attendance.Key) bson.M {
	return bson.M{
		"user_id":   key.UserID,
		"user_type": string(key.UserType),
		"date":      key.Date.Format(dateLayout),
	}
}

// stateFilter adds the conditions matching documents exactly in state s.
func stateFilter(filter bson.M, s attendance.State) bson.M {
	for i, field := range punchFields {
		if i < int(s) {
			filter[field] = bson.M{"$ne": nil}
		} else {
			filter[field] = nil
		}
	}
	return filter
}

// GetByKey implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByKey(ctx context.Context, key attendance.Key) (*attendance.Attendance, error) {
	var doc attendanceDocument
	if err := r.collection.FindOne(ctx, keyFilter(key)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance: %w", err)
	}
	att, err := r.toEntity(doc)
	if err != nil {
		return nil, err
	}
	return &att, nil
}

// CreateCheckIn implements attendance.AttendanceRepository.
func (r *attendanceRepository) CreateCheckIn(ctx context.Context, record attendance.Attendance) (attendance.Attendance, error) {
	if record.CheckIn() == nil {
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", attendance.ErrNoCheckInFound)
	}

	doc := attendanceDocument{
		ID:          record.ID,
		UserID:      record.UserID,
		UserType:    string(record.UserType),
		Date:        record.Date.Format(dateLayout),
		CheckIn:     newPunchDocument(record.CheckIn()),
		IsLate:      record.IsLate,
		LateMinutes: record.LateMinutes,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}

	// The unique (user_id, user_type, date) index decides concurrent check-ins.
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return attendance.Attendance{}, attendance.ErrStateChanged
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return r.toEntity(doc)
}

// RecordPunch implements attendance.AttendanceRepository.
func (r *attendanceRepository) RecordPunch(ctx context.Context, key attendance.Key, action attendance.Action, p attendance.Punch) (attendance.Attendance, error) {
	if int(action) < 0 || int(action) >= len(punchFields) {
		return attendance.Attendance{}, fmt.Errorf("unknown attendance action %d", int(action))
	}

	filter := stateFilter(keyFilter(key), action.Requires())
	update := bson.M{"$set": bson.M{
		punchFields[action]: newPunchDocument(&p),
		"updated_at":        p.Time,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc attendanceDocument
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return attendance.Attendance{}, attendance.ErrStateChanged
		}
		return attendance.Attendance{}, fmt.Errorf("failed to record %s: %w", action, err)
	}
	return r.toEntity(doc)
}

// GetMyAttendance implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetMyAttendance(ctx context.Context, userID string, userType user.UserType, filter attendance.MyAttendanceFilter) ([]attendance.Attendance, int64, error) {
	query := bson.M{"user_id": userID, "user_type": string(userType)}

	dateRange := bson.M{}
	if filter.StartDate != nil && *filter.StartDate != "" {
		dateRange["$gte"] = *filter.StartDate
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		dateRange["$lte"] = *filter.EndDate
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	if filter.Date != nil && *filter.Date != "" {
		query["date"] = *filter.Date
	}

	// Status is derived from the punches, not stored
	if filter.Status != nil {
		reCheckedIn := stateFilter(bson.M{}, attendance.StateReCheckedIn)
		switch *filter.Status {
		case attendance.StatusReCheckedIn:
			stateFilter(query, attendance.StateReCheckedIn)
		case attendance.StatusLate:
			query["is_late"] = true
			query["$nor"] = bson.A{reCheckedIn}
		case attendance.StatusPresent:
			query["is_late"] = false
			query["$nor"] = bson.A{reCheckedIn}
		}
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	sortField := "date"
	if filter.SortBy == "check_in_time" {
		sortField = "check_in.time"
	}
	sortOrder := -1
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = 1
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: sortField, Value: sortOrder}, {Key: "_id", Value: 1}}).
		SetSkip(int64((max(filter.Page, 1) - 1) * limit)).
		SetLimit(int64(limit))

	attendances, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return attendances, total, nil
}

// ListByDateRange implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Attendance, error) {
	query := bson.M{"date": bson.M{"$gte": from.Format(dateLayout), "$lte": to.Format(dateLayout)}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "user_id", Value: 1}})
	return r.find(ctx, query, opts)
}

func (r *attendanceRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]attendance.Attendance, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendances: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []attendanceDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode attendances: %w", err)
	}

	attendances := make([]attendance.Attendance, 0, len(docs))
	for _, d := range docs {
		att, err := r.toEntity(d)
		if err != nil {
			return nil, err
		}
		attendances = append(attendances, att)
	}
	return attendances, nil
}
