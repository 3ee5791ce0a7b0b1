package fakeuserrepo

import (
	"strings"
	"sync"
	"time"

	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/pkg/errors"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[int64]*users.Account
	emailIds map[string]int64 // email to user id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[int64]*users.Account),
		emailIds: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Create(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	key := strings.ToLower(account.Email)
	if _, ok := ur.emailIds[key]; ok {
		return errors.Wrapf(deskerrors.ErrUserExists, "[FakeUserRepo.Create] %s", account.Email)
	}
	ur.nextID++
	account.ID = ur.nextID
	if account.CreatedAt == "" {
		account.CreatedAt = users.Timestamp(time.Now())
	}
	if account.Role == "" {
		account.Role = "user"
	}
	cp := *account
	ur.users[account.ID] = &cp
	ur.emailIds[key] = account.ID
	return nil
}

func (ur *FakeUserRepo) Update(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.users[account.ID]; !ok {
		return deskerrors.ErrUserNotFound
	}
	cp := *account
	ur.users[account.ID] = &cp
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[strings.ToLower(email)]
	if !ok {
		return nil, deskerrors.ErrUserNotFound
	}
	cp := *ur.users[id]
	return &cp, nil
}

func (ur *FakeUserRepo) GetByID(id int64) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	a, ok := ur.users[id]
	if !ok {
		return nil, deskerrors.ErrUserNotFound
	}
	cp := *a
	return &cp, nil
}

func (ur *FakeUserRepo) BumpTokenVersion(id int64) (int, error) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	a, ok := ur.users[id]
	if !ok {
		return 0, deskerrors.ErrUserNotFound
	}
	a.TokenVersion++
	return a.TokenVersion, nil
}
