package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"eventx/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	mu        sync.Mutex
	byID      map[string]*domain.Event
	nextID    int
	createErr error
	updateErr error
	getErr    error
}

func newFakeEventRepo(events ...*domain.Event) *fakeEventRepo {
	f := &fakeEventRepo{byID: make(map[string]*domain.Event), nextID: 1}
	for _, e := range events {
		f.byID[e.ID] = e
	}
	return f
}

func (f *fakeEventRepo) Create(_ context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) GetByCreatorAndTitle(_ context.Context, creatorID, title string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.CreatorID == creatorID && e.Title == title {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(_ context.Context) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	return out, nil
}

func (f *fakeEventRepo) ListByCreator(_ context.Context, creatorID string) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Event
	for _, e := range f.byID {
		if e.CreatorID == creatorID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(_ context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *e
	f.byID[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeBookingRepo enforces the same unique keys as the bookings table.
type fakeBookingRepo struct {
	mu         sync.Mutex
	bookings   []*domain.Booking
	createErrs []error // consumed one per Create call before the unique checks
	creates    int
	lookupErr  error
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		if err != nil {
			return err
		}
	}
	if !b.BookingState.Legal() {
		return domain.ErrIllegalTransition
	}
	for _, existing := range f.bookings {
		switch {
		case existing.BookingID == b.BookingID:
			return domain.ErrBookingIDConflict
		case existing.EventID == b.EventID && existing.UserID == b.UserID:
			return domain.ErrDuplicateUserBooking
		case existing.EventID == b.EventID && existing.RollNumber == b.RollNumber:
			return domain.ErrDuplicateRollBooking
		}
	}
	b.ID = fmt.Sprintf("b-%d", len(f.bookings)+1)
	cp := *b
	f.bookings = append(f.bookings, &cp)
	return nil
}

func (f *fakeBookingRepo) find(match func(*domain.Booking) bool) (*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, b := range f.bookings {
		if match(b) {
			return b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeBookingRepo) GetByBookingID(_ context.Context, bookingID string) (*domain.Booking, error) {
	return f.find(func(b *domain.Booking) bool { return b.BookingID == bookingID })
}

func (f *fakeBookingRepo) GetByOrderID(_ context.Context, orderID string) (*domain.Booking, error) {
	return f.find(func(b *domain.Booking) bool { return b.Payment != nil && b.Payment.OrderID == orderID })
}

func (f *fakeBookingRepo) GetByEventAndUser(_ context.Context, eventID, userID string) (*domain.Booking, error) {
	return f.find(func(b *domain.Booking) bool { return b.EventID == eventID && b.UserID == userID })
}

func (f *fakeBookingRepo) GetByEventAndRoll(_ context.Context, eventID, roll string) (*domain.Booking, error) {
	return f.find(func(b *domain.Booking) bool { return b.EventID == eventID && b.RollNumber == roll })
}

func (f *fakeBookingRepo) ListByEvent(_ context.Context, eventID string, params domain.PaginationParams) ([]*domain.Booking, int, error) {
	all, _ := f.ListAllByEvent(context.Background(), eventID)
	total := len(all)
	start := params.Offset()
	if start > total {
		start = total
	}
	end := start + params.PageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (f *fakeBookingRepo) ListAllByEvent(_ context.Context, eventID string) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListByUser(_ context.Context, userID string) ([]*domain.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) Stats(_ context.Context, eventID string) (*domain.BookingStats, error) {
	all, _ := f.ListAllByEvent(context.Background(), eventID)
	stats := &domain.BookingStats{ByCollege: map[string]int{}, ByDepartment: map[string]int{}}
	for _, b := range all {
		stats.TotalBookings++
		if b.Status == domain.StatusConfirmed {
			stats.ConfirmedBookings++
		}
		if b.PaymentStatus == domain.PaymentPaid {
			stats.PaidBookings++
		}
		stats.ByCollege[b.College]++
		stats.ByDepartment[b.Department]++
	}
	return stats, nil
}

func (f *fakeBookingRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bookings)
}

type fakeOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.PaymentOrder
	stale    []*domain.PaymentOrder
	staleErr error
}

func newFakeOrderRepo(orders ...*domain.PaymentOrder) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]*domain.PaymentOrder)}
	for _, o := range orders {
		f.orders[o.OrderID] = o
	}
	return f
}

func (f *fakeOrderRepo) Create(_ context.Context, o *domain.PaymentOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.OrderID] = o
	return nil
}

func (f *fakeOrderRepo) GetByOrderID(_ context.Context, orderID string) (*domain.PaymentOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.orders[orderID]; ok {
		return o, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = updatedAt
	return nil
}

func (f *fakeOrderRepo) ListStale(_ context.Context, _ time.Time, _ int) ([]*domain.PaymentOrder, error) {
	return f.stale, f.staleErr
}

func (f *fakeOrderRepo) status(orderID string) domain.OrderStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[orderID].Status
}

type fakeGateway struct {
	validSignature bool
	order          *domain.GatewayOrder
	orderReq       *domain.OrderRequest
	orderErr       error
	payment        *domain.GatewayPayment
	paymentErr     error
	orderPayments  map[string][]*domain.GatewayPayment
	fetchCalls     int
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func (f *fakeGateway) CreateOrder(_ context.Context, req *domain.OrderRequest) (*domain.GatewayOrder, error) {
	f.orderReq = req
	if f.orderErr != nil {
		return nil, f.orderErr
	}
	return f.order, nil
}

func (f *fakeGateway) FetchPayment(_ context.Context, _ string) (*domain.GatewayPayment, error) {
	f.fetchCalls++
	return f.payment, f.paymentErr
}

func (f *fakeGateway) FetchOrderPayments(_ context.Context, orderID string) ([]*domain.GatewayPayment, error) {
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return f.orderPayments[orderID], nil
}

func (f *fakeGateway) VerifySignature(_, _, _ string) bool { return f.validSignature }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []*domain.BookingNotification
}

func (f *fakeNotifier) BookingConfirmed(_ context.Context, n *domain.BookingNotification) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
}

type fakeImageHost struct {
	uploads   int
	destroyed []string
	uploadErr error
}

func (f *fakeImageHost) Upload(_ context.Context, u *domain.Upload, folder string) (*domain.Poster, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads++
	id := fmt.Sprintf("%s/poster-%d", folder, f.uploads)
	return &domain.Poster{URL: "https://img.example/" + id, PublicID: id}, nil
}

func (f *fakeImageHost) Destroy(_ context.Context, publicID string) error {
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

type fakeUploadGuard struct {
	held       map[string]bool
	acquireErr error
	released   []string
}

func newFakeUploadGuard() *fakeUploadGuard {
	return &fakeUploadGuard{held: make(map[string]bool)}
}

func (f *fakeUploadGuard) Acquire(_ context.Context, key string) (bool, error) {
	if f.acquireErr != nil {
		return false, f.acquireErr
	}
	if f.held[key] {
		return false, nil
	}
	f.held[key] = true
	return true, nil
}

func (f *fakeUploadGuard) Release(_ context.Context, key string) error {
	delete(f.held, key)
	f.released = append(f.released, key)
	return nil
}

type fakeUserRepo struct {
	users     map[string]*domain.User
	updated   string
	updateErr error
}

func (f *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id, hash, salt string, _ time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	u := f.users[id]
	u.PasswordHash, u.Salt = hash, salt
	f.updated = id
	return nil
}

type fakeClubRepo struct {
	clubs map[string]*domain.Club
}

func (f *fakeClubRepo) GetByID(_ context.Context, id string) (*domain.Club, error) {
	if c, ok := f.clubs[id]; ok {
		return c, nil
	}
	return nil, domain.ErrNotFound
}

// plainHasher stores salt+password verbatim.
type plainHasher struct{}

func (plainHasher) GenerateSalt() (string, error) { return "salt", nil }

func (plainHasher) Hash(salt, password string) (string, error) { return salt + password, nil }

func (plainHasher) Compare(hash, salt, password string) error {
	if hash != salt+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

type fakeIssuer struct {
	err error
}

func (f fakeIssuer) Issue(user *domain.User, _ time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + user.ID, nil
}

type fakeEmailService struct {
	mu            sync.Mutex
	confirmations []*domain.BookingConfirmationEmailData
	receipts      []*domain.PaymentReceiptEmailData
	confirmErr    error
	receiptErr    error
}

func (f *fakeEmailService) SendBookingConfirmation(_ context.Context, d *domain.BookingConfirmationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmations = append(f.confirmations, d)
	return f.confirmErr
}

func (f *fakeEmailService) SendPaymentReceipt(_ context.Context, d *domain.PaymentReceiptEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts = append(f.receipts, d)
	return f.receiptErr
}
