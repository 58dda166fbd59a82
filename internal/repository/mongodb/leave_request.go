package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type leaveRequestDocument struct {
	ID              string     `bson:"_id"`
	UserID          string     `bson:"user_id"`
	UserType        string     `bson:"user_type"`
	LeaveType       string     `bson:"leave_type"`
	FromDate        string     `bson:"from_date"`
	ToDate          string     `bson:"to_date"`
	IsHalfDay       bool       `bson:"is_half_day"`
	HalfDayType     *string    `bson:"half_day_type,omitempty"`
	TotalDays       float64    `bson:"total_days"`
	WorkingDays     float64    `bson:"working_days"`
	Reason          string     `bson:"reason"`
	Status          string     `bson:"status"`
	ApprovedBy      *string    `bson:"approved_by,omitempty"`
	ApprovedAt      *time.Time `bson:"approved_at,omitempty"`
	ApprovalNotes   *string    `bson:"approval_notes,omitempty"`
	RejectionReason *string    `bson:"rejection_reason,omitempty"`
	CancelledBy     *string    `bson:"cancelled_by,omitempty"`
	CancelledAt     *time.Time `bson:"cancelled_at,omitempty"`
	DeductedDays    float64    `bson:"deducted_days"`
	SalaryDeduction float64    `bson:"salary_deduction"`
	CreatedAt       time.Time  `bson:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at"`
}

func newLeaveRequestDocument(r leave.LeaveRequest) leaveRequestDocument {
	var halfDayType *string
	if r.HalfDayType != nil {
		s := string(*r.HalfDayType)
		halfDayType = &s
	}
	return leaveRequestDocument{
		ID:              r.ID,
		UserID:          r.UserID,
		UserType:        string(r.UserType),
		LeaveType:       string(r.LeaveType),
		FromDate:        r.FromDate.Format(dateLayout),
		ToDate:          r.ToDate.Format(dateLayout),
		IsHalfDay:       r.IsHalfDay,
		HalfDayType:     halfDayType,
		TotalDays:       r.TotalDays,
		WorkingDays:     r.WorkingDays,
		Reason:          r.Reason,
		Status:          string(r.Status),
		ApprovedBy:      r.ApprovedBy,
		ApprovedAt:      r.ApprovedAt,
		ApprovalNotes:   r.ApprovalNotes,
		RejectionReason: r.RejectionReason,
		CancelledBy:     r.CancelledBy,
		CancelledAt:     r.CancelledAt,
		DeductedDays:    r.DeductedDays,
		SalaryDeduction: r.SalaryDeduction,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type leaveRequestRepository struct {
	collection *mongo.Collection
	location   *time.Location
}

func NewLeaveRequestRepository(db *database.MongoDB, location *time.Location) leave.LeaveRequestRepository {
	if location == nil {
		location = time.Local
	}
	return &leaveRequestRepository{
		collection: db.Collection(database.CollectionLeaveRequests),
		location:   location,
	}
}

func (r *leaveRequestRepository) toEntity(d leaveRequestDocument) (leave.LeaveRequest, error) {
	from, err := parseDate(d.FromDate, r.location)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	to, err := parseDate(d.ToDate, r.location)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	req := leave.LeaveRequest{
		ID:              d.ID,
		UserID:          d.UserID,
		UserType:        user.UserType(d.UserType),
		LeaveType:       leave.Type(d.LeaveType),
		FromDate:        from,
		ToDate:          to,
		IsHalfDay:       d.IsHalfDay,
		TotalDays:       d.TotalDays,
		WorkingDays:     d.WorkingDays,
		Reason:          d.Reason,
		Status:          leave.Status(d.Status),
		ApprovedBy:      d.ApprovedBy,
		ApprovedAt:      d.ApprovedAt,
		ApprovalNotes:   d.ApprovalNotes,
		RejectionReason: d.RejectionReason,
		CancelledBy:     d.CancelledBy,
		CancelledAt:     d.CancelledAt,
		DeductedDays:    d.DeductedDays,
		SalaryDeduction: d.SalaryDeduction,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.HalfDayType != nil {
		t := leave.HalfDayType(*d.HalfDayType)
		req.HalfDayType = &t
	}
	return req, nil
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	doc := newLeaveRequestDocument(request)
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to insert leave request: %w", err)
	}
	return r.toEntity(doc)
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	var doc leaveRequestDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return leave.LeaveRequest{}, leave.ErrLeaveNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return r.toEntity(doc)
}

// FindOverlapping implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) FindOverlapping(ctx context.Context, userID string, from, to time.Time) (*leave.LeaveRequest, error) {
	filter := bson.M{
		"user_id":   userID,
		"status":    bson.M{"$in": bson.A{string(leave.StatusPending), string(leave.StatusApproved)}},
		"from_date": bson.M{"$lte": to.Format(dateLayout)},
		"to_date":   bson.M{"$gte": from.Format(dateLayout)},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "from_date", Value: 1}})

	var doc leaveRequestDocument
	if err := r.collection.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find overlapping leave: %w", err)
	}
	found, err := r.toEntity(doc)
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// UpdateDecision implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) UpdateDecision(ctx context.Context, request leave.LeaveRequest, expected leave.Status) (leave.LeaveRequest, error) {
	doc := newLeaveRequestDocument(request)
	update := bson.M{"$set": bson.M{
		"status":           doc.Status,
		"approved_by":      doc.ApprovedBy,
		"approved_at":      doc.ApprovedAt,
		"approval_notes":   doc.ApprovalNotes,
		"rejection_reason": doc.RejectionReason,
		"cancelled_by":     doc.CancelledBy,
		"cancelled_at":     doc.CancelledAt,
		"deducted_days":    doc.DeductedDays,
		"salary_deduction": doc.SalaryDeduction,
		"updated_at":       doc.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated leaveRequestDocument
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": request.ID, "status": string(expected)}, update, opts).Decode(&updated)
	if err == nil {
		return r.toEntity(updated)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}

	// No document matched: either the request is gone or its status moved on.
	if _, getErr := r.GetByID(ctx, request.ID); getErr != nil {
		return leave.LeaveRequest{}, getErr
	}
	return leave.LeaveRequest{}, leave.ErrStatusChanged
}

// ListPending implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListPending(ctx context.Context) ([]leave.LeaveRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"status": string(leave.StatusPending)}, opts)
}

// ListByDateRange implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]leave.LeaveRequest, error) {
	filter := bson.M{
		"from_date": bson.M{"$lte": to.Format(dateLayout)},
		"to_date":   bson.M{"$gte": from.Format(dateLayout)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "from_date", Value: 1}, {Key: "created_at", Value: 1}})
	return r.find(ctx, filter, opts)
}

// ListByUser implements leave.LeaveRequestRepository.
func (r *leaveRequestRepository) ListByUser(ctx context.Context, userID string, userType user.UserType, filter leave.MyLeaveRequestFilter) ([]leave.LeaveRequest, int64, error) {
	query := bson.M{"user_id": userID, "user_type": string(userType)}
	if filter.Status != nil && *filter.Status != "" {
		query["status"] = *filter.Status
	}
	if filter.LeaveType != nil && *filter.LeaveType != "" {
		query["leave_type"] = *filter.LeaveType
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((max(filter.Page, 1) - 1) * limit)).
		SetLimit(int64(limit))

	requests, err := r.find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

func (r *leaveRequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]leave.LeaveRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []leaveRequestDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode leave requests: %w", err)
	}

	requests := make([]leave.LeaveRequest, 0, len(docs))
	for _, d := range docs {
		req, err := r.toEntity(d)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}
