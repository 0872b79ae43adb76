package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/event-seat-booking/internal/model"
	"github.com/iliyamo/event-seat-booking/internal/queue"
	"github.com/iliyamo/event-seat-booking/internal/repository"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, name, email string) (model.User, error) {
	args := m.Called(ctx, name, email)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, id uint64, p repository.UserPatch) (model.User, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func TestCreateUser(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("Create", mock.Anything, "Ada", "ada@example.com").
		Return(model.User{ID: 1, Name: "Ada", Email: "ada@example.com"}, nil)
	s := NewUserService(repo, time.Second, zap.NewNop())

	u, err := s.CreateUser(context.Background(), " Ada ", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), u.ID)
	repo.AssertExpectations(t)
}

func TestCreateUserDuplicateEmailConflicts(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("Create", mock.Anything, "Ada", "ada@example.com").
		Return(model.User{}, fmt.Errorf("user ada@example.com: %w", repository.ErrDuplicate))
	s := NewUserService(repo, time.Second, zap.NewNop())

	_, err := s.CreateUser(context.Background(), "Ada", "ada@example.com")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserValidation(t *testing.T) {
	s := NewUserService(&mockUserRepo{}, time.Second, zap.NewNop())

	_, err := s.CreateUser(context.Background(), "", "ada@example.com")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = s.CreateUser(context.Background(), "Ada", "not-an-email")
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestGetUserMapsErrors(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByID", mock.Anything, uint64(9)).Return(model.User{}, repository.ErrNotFound)
	repo.On("GetByID", mock.Anything, uint64(10)).Return(model.User{}, errors.New("driver: bad connection"))
	s := NewUserService(repo, time.Second, zap.NewNop())

	_, err := s.GetUser(context.Background(), 9)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = s.GetUser(context.Background(), 10)
	var ue *UnavailableError
	assert.ErrorAs(t, err, &ue)
}

type mockNotificationRepo struct{ mock.Mock }

func (m *mockNotificationRepo) CreateIfAbsent(ctx context.Context, n *model.Notification) (bool, error) {
	args := m.Called(ctx, n)
	if id, ok := args.Get(0).(uint64); ok {
		n.ID = id
		return true, args.Error(1)
	}
	return args.Bool(0), args.Error(1)
}

func (m *mockNotificationRepo) GetByBookingKind(ctx context.Context, bookingID uint64, kind string) (model.Notification, error) {
	args := m.Called(ctx, bookingID, kind)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, f repository.NotificationFilter) ([]model.Notification, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id uint64) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id uint64) (model.Notification, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID uint64) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id uint64) error {
	return m.Called(ctx, id).Error(0)
}

func TestListForUserAppliesDefaultLimit(t *testing.T) {
	repo := &mockNotificationRepo{}
	repo.On("List", mock.Anything, repository.NotificationFilter{UserID: 3, Limit: repository.DefaultNotificationLimit}).
		Return([]model.Notification{{ID: 1}}, nil)
	s := NewNotificationService(repo, time.Second, zap.NewNop())

	out, err := s.ListForUser(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	repo.AssertExpectations(t)
}

func TestMarkReadUnknownNotification(t *testing.T) {
	repo := &mockNotificationRepo{}
	repo.On("MarkRead", mock.Anything, uint64(4)).Return(model.Notification{}, repository.ErrNotFound)
	s := NewNotificationService(repo, time.Second, zap.NewNop())

	_, err := s.MarkRead(context.Background(), 4)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "notification", nf.Entity)
}

func strPtr(s string) *string { return &s }

func TestUpdateUser(t *testing.T) {
	repo := &mockUserRepo{}
	patch := repository.UserPatch{Email: strPtr("grace@example.com")}
	repo.On("Update", mock.Anything, uint64(1), patch).
		Return(model.User{ID: 1, Name: "Ada", Email: "grace@example.com"}, nil)
	repo.On("Update", mock.Anything, uint64(2), patch).
		Return(model.User{}, fmt.Errorf("update user 2: %w", repository.ErrDuplicate))
	repo.On("Update", mock.Anything, uint64(3), patch).Return(model.User{}, repository.ErrNotFound)
	s := NewUserService(repo, time.Second, zap.NewNop())

	u, err := s.UpdateUser(context.Background(), 1, patch)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", u.Email)

	_, err = s.UpdateUser(context.Background(), 2, patch)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.UpdateUser(context.Background(), 3, patch)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "user", nf.Entity)
	repo.AssertExpectations(t)
}

func TestUpdateUserValidation(t *testing.T) {
	s := NewUserService(&mockUserRepo{}, time.Second, zap.NewNop())

	_, err := s.UpdateUser(context.Background(), 1, repository.UserPatch{Name: strPtr("  ")})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	_, err = s.UpdateUser(context.Background(), 1, repository.UserPatch{Email: strPtr("nope")})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve.Field)
}

func TestDeleteUser(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("Delete", mock.Anything, uint64(1)).Return(nil)
	repo.On("Delete", mock.Anything, uint64(2)).Return(fmt.Errorf("delete user 2: %w", repository.ErrReferenced))
	repo.On("Delete", mock.Anything, uint64(3)).Return(repository.ErrNotFound)
	s := NewUserService(repo, time.Second, zap.NewNop())

	require.NoError(t, s.DeleteUser(context.Background(), 1))
	assert.ErrorIs(t, s.DeleteUser(context.Background(), 2), ErrConflict)
	var nf *NotFoundError
	assert.ErrorAs(t, s.DeleteUser(context.Background(), 3), &nf)
}

func TestCreateNotificationWritesThroughBookingKindKey(t *testing.T) {
	repo := &mockNotificationRepo{}
	repo.On("CreateIfAbsent", mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
		return n.BookingID == 5 && n.UserID == 3 && n.Kind == queue.SubjectBookingCreated && n.Message == "hello"
	})).Return(uint64(11), nil)
	repo.On("GetByID", mock.Anything, uint64(11)).
		Return(model.Notification{ID: 11, BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCreated}, nil)
	s := NewNotificationService(repo, time.Second, zap.NewNop())

	n, created, err := s.Create(context.Background(), NotificationInput{
		BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCreated, Message: " hello ",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(11), n.ID)
	repo.AssertExpectations(t)
}

func TestCreateNotificationReplayReturnsExisting(t *testing.T) {
	repo := &mockNotificationRepo{}
	existing := model.Notification{ID: 4, BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCreated, Message: "first"}
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).Return(false, nil)
	repo.On("GetByBookingKind", mock.Anything, uint64(5), queue.SubjectBookingCreated).Return(existing, nil)
	s := NewNotificationService(repo, time.Second, zap.NewNop())

	n, created, err := s.Create(context.Background(), NotificationInput{
		BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCreated, Message: "second",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing, n)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCreateNotificationValidation(t *testing.T) {
	s := NewNotificationService(&mockNotificationRepo{}, time.Second, zap.NewNop())
	valid := NotificationInput{BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCancelled, Message: "bye"}

	testCases := []struct {
		field  string
		mutate func(in *NotificationInput)
	}{
		{"booking_id", func(in *NotificationInput) { in.BookingID = 0 }},
		{"user_id", func(in *NotificationInput) { in.UserID = 0 }},
		{"kind", func(in *NotificationInput) { in.Kind = "booking.updated" }},
		{"message", func(in *NotificationInput) { in.Message = "   " }},
	}
	for _, tc := range testCases {
		t.Run(tc.field, func(t *testing.T) {
			in := valid
			tc.mutate(&in)
			_, _, err := s.Create(context.Background(), in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestCreateNotificationUnknownBooking(t *testing.T) {
	repo := &mockNotificationRepo{}
	repo.On("CreateIfAbsent", mock.Anything, mock.Anything).
		Return(false, fmt.Errorf("booking 5 or user 3: %w", repository.ErrNotFound))
	s := NewNotificationService(repo, time.Second, zap.NewNop())

	_, _, err := s.Create(context.Background(), NotificationInput{
		BookingID: 5, UserID: 3, Kind: queue.SubjectBookingCreated, Message: "hello",
	})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "booking", nf.Entity)
}
