package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

var (
	testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	nopLog  = zerolog.Nop()
)

func fixedClock() Option { return WithClock(func() time.Time { return testNow }) }

// steppingClock advances one minute per reading.
func steppingClock() Option {
	var mu sync.Mutex
	now := testNow
	return WithClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Minute)
		return now
	})
}

func cloneUser(u *domain.User) *domain.User {
	return domain.RestoreUser(u.ID, u.DisplayName, u.Email, u.PasswordHash, u.Roles(), u.CreatedAt, u.UpdatedAt)
}

type stubUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	updates int
	failErr error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return r.failErr
	}
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return domain.ErrUserExists
		}
	}
	r.byID[u.ID] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failErr != nil {
		return nil, r.failErr
	}
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.byID[u.ID] = cloneUser(u)
	r.updates++
	return nil
}

func (r *stubUserRepo) put(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.ID] = cloneUser(u)
}

// plainHasher avoids bcrypt cost in service tests.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(p, h string) bool      { return h == "hashed:"+p }

type stubTokens struct {
	issued  map[string]string
	verrErr error
}

func newStubTokens() *stubTokens { return &stubTokens{issued: make(map[string]string)} }

func (t *stubTokens) Issue(u *domain.User) (string, time.Time, error) {
	tok := "tok-" + u.Email
	t.issued[tok] = u.Email
	return tok, testNow.Add(time.Hour), nil
}

func (t *stubTokens) Validate(token string) (string, error) {
	if t.verrErr != nil {
		return "", t.verrErr
	}
	sub, ok := t.issued[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return sub, nil
}

type stubEquipmentRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.EquipmentState
	creates int
	updates int
	deletes int
	// createErr simulates the unique index firing after the pre-check.
	createErr error
}

func newStubEquipmentRepo() *stubEquipmentRepo {
	return &stubEquipmentRepo{byID: make(map[string]domain.EquipmentState)}
}

func (r *stubEquipmentRepo) serialTaken(serial, exceptID string) bool {
	for id, s := range r.byID {
		if s.SerialNumber == serial && id != exceptID {
			return true
		}
	}
	return false
}

func (r *stubEquipmentRepo) Create(_ context.Context, e *domain.Equipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if r.serialTaken(e.SerialNumber(), "") {
		return domain.ErrSerialNumberInUse
	}
	r.byID[e.ID] = e.State()
	r.creates++
	return nil
}

func (r *stubEquipmentRepo) Update(_ context.Context, e *domain.Equipment, loggedBefore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[e.ID]
	if !ok {
		return domain.ErrEquipmentNotFound
	}
	if len(stored.ChangeLog) != loggedBefore {
		return domain.ErrConcurrentUpdate
	}
	if r.serialTaken(e.SerialNumber(), e.ID) {
		return domain.ErrSerialNumberInUse
	}
	r.byID[e.ID] = e.State()
	r.updates++
	return nil
}

func (r *stubEquipmentRepo) FindByID(_ context.Context, id string) (*domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrEquipmentNotFound
	}
	return domain.RestoreEquipment(s), nil
}

func (r *stubEquipmentRepo) FindBySerialNumber(_ context.Context, serial string) (*domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.byID {
		if s.SerialNumber == serial {
			return domain.RestoreEquipment(s), nil
		}
	}
	return nil, domain.ErrEquipmentNotFound
}

func (r *stubEquipmentRepo) List(_ context.Context, f ports.EquipmentFilter) ([]*domain.Equipment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Equipment{}
	for _, s := range r.byID {
		if f.Name != "" && !strings.Contains(strings.ToLower(s.Name), strings.ToLower(f.Name)) {
			continue
		}
		out = append(out, domain.RestoreEquipment(s))
	}
	return out, nil
}

func (r *stubEquipmentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrEquipmentNotFound
	}
	delete(r.byID, id)
	r.deletes++
	return nil
}

// interleavingRepo runs between once, after the first update was read and
// before it is written.
type interleavingRepo struct {
	*stubEquipmentRepo
	between func()
}

func (r *interleavingRepo) Update(ctx context.Context, e *domain.Equipment, loggedBefore int) error {
	if fn := r.between; fn != nil {
		r.between = nil
		fn()
	}
	return r.stubEquipmentRepo.Update(ctx, e, loggedBefore)
}

// conflictingRepo loses every write to a concurrent update.
type conflictingRepo struct {
	*stubEquipmentRepo
	attempts int
}

func (r *conflictingRepo) Update(context.Context, *domain.Equipment, int) error {
	r.attempts++
	return domain.ErrConcurrentUpdate
}

// stubLock maps each held serial to the token of its claim.
type stubLock struct {
	held       map[string]string
	acquireErr error
	released   []string
	claims     int
}

func newStubLock() *stubLock { return &stubLock{held: make(map[string]string)} }

func (l *stubLock) Acquire(_ context.Context, serial string) (string, bool, error) {
	if l.acquireErr != nil {
		return "", false, l.acquireErr
	}
	if _, ok := l.held[serial]; ok {
		return "", false, nil
	}
	l.claims++
	token := fmt.Sprintf("claim-%d", l.claims)
	l.held[serial] = token
	return token, true, nil
}

func (l *stubLock) Release(_ context.Context, serial, token string) error {
	if l.held[serial] == token {
		delete(l.held, serial)
	}
	l.released = append(l.released, serial)
	return nil
}

type recordingPublisher struct {
	events []domain.EquipmentEvent
}

func (p *recordingPublisher) Publish(events ...domain.EquipmentEvent) {
	p.events = append(p.events, events...)
}

var errStorage = errors.New("connection reset")

func newUserWithRoles(id, email string, roles ...domain.Role) *domain.User {
	u, err := domain.NewUser("User "+id, email, "hashed:password", roles, testNow)
	if err != nil {
		panic(err)
	}
	u.ID = id
	return u
}
