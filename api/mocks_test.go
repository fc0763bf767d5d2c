package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Domenick1991/resortbooking/internal/auth"
	"github.com/Domenick1991/resortbooking/internal/domain"
	"github.com/Domenick1991/resortbooking/internal/logger"
	"github.com/Domenick1991/resortbooking/internal/registry"
	"github.com/Domenick1991/resortbooking/internal/service/availability"
	"github.com/Domenick1991/resortbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) CreateBooking(ctx context.Context, input booking.CreateBookingInput) (*booking.CreateBookingResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.CreateBookingResult), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmBooking(ctx context.Context, id int64, orderRef string) (*domain.Booking, error) {
	args := m.Called(ctx, id, orderRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) CancelBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ExpireBooking(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingUseCase) ExpirePendingBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) HardCheck(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBookingUseCase) HardCheckSession(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *MockBookingUseCase) RetryNotification(ctx context.Context, id int64, kind domain.NotificationKind) error {
	return m.Called(ctx, id, kind).Error(0)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id int64) (*booking.BookingView, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.BookingView), args.Error(1)
}

type MockAvailability struct {
	mock.Mock
}

func (m *MockAvailability) GetAvailable(ctx context.Context, q availability.Query) ([]domain.RoomAvailability, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RoomAvailability), args.Error(1)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Rooms(ctx context.Context) ([]domain.Room, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRegistry) Groups(ctx context.Context) ([]domain.Group, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Group), args.Error(1)
}

func (m *MockRegistry) SaveRooms(ctx context.Context, input registry.SaveInput) ([]domain.Room, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Room), args.Error(1)
}

func (m *MockRegistry) SaveGroups(ctx context.Context, input registry.SaveInput) ([]domain.Group, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Group), args.Error(1)
}

func (m *MockRegistry) RestoreBackup(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) RecoverFromBookings(ctx context.Context) (*registry.RecoveryReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.RecoveryReport), args.Error(1)
}

func (m *MockRegistry) Empty(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockRegistry) Status(ctx context.Context) (*registry.Status, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registry.Status), args.Error(1)
}

const testSecret = "test-secret"

type testServer struct {
	router       *gin.Engine
	bookings     *MockBookingUseCase
	availability *MockAvailability
	registry     *MockRegistry
}

func newTestServer() *testServer {
	gin.SetMode(gin.TestMode)
	s := &testServer{
		bookings:     &MockBookingUseCase{},
		availability: &MockAvailability{},
		registry:     &MockRegistry{},
	}
	s.router = NewRouter(nil, logger.Discard(), auth.New(testSecret, time.Hour), Handlers{
		Availability: NewAvailabilityHandler(s.availability),
		Bookings:     NewBookingHandler(s.bookings),
		Payments:     NewPaymentHandler(s.bookings),
		Admin:        NewAdminHandler(s.registry, s.bookings),
	})
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func adminToken(t *testing.T) string {
	token, err := auth.New(testSecret, time.Hour).GenerateToken("ops", auth.RoleAdmin)
	require.NoError(t, err)
	return token
}

func paymentRequest(t *testing.T, path, body string) *http.Request {
	t.Helper()
	token, err := auth.New(testSecret, time.Hour).GenerateToken("gateway", auth.RolePayment)
	require.NoError(t, err)
	req := jsonRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func jsonRequest(method, path string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}
