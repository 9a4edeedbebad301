package repository

import (
	"context"
	"sync"

	"campusportal/internal/model"
)

type memoryUserRepository struct {
	mu    sync.RWMutex
	users []model.User
}

// NewMemoryUserRepository returns a process-local store. Records are lost on
// restart. Lookups are linear scans in insertion order.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{}
}

func (r *memoryUserRepository) FindByEmailOrUsername(_ context.Context, email, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.find(func(u *model.User) bool {
		return u.Email == email || u.Username == username
	})
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.find(func(u *model.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.find(func(u *model.User) bool { return u.ID == id })
}

func (r *memoryUserRepository) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.find(func(u *model.User) bool {
		return u.Email == user.Email || u.Username == user.Username
	}); err == nil {
		return ErrDuplicateUser
	}

	r.users = append(r.users, *user)
	return nil
}

// find must be called with mu held. It returns a copy so callers cannot
// mutate stored records.
func (r *memoryUserRepository) find(match func(*model.User) bool) (*model.User, error) {
	for i := range r.users {
		if match(&r.users[i]) {
			u := r.users[i]
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}
