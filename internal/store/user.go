package store

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/pavelanni/smartstudy/internal/model"
)

// CreateUser inserts a new user. An empty ID is assigned as u001, u002, ...
func (s *Store) CreateUser(u model.User) (model.User, error) {
	users, err := s.users.LoadAll()
	if err != nil {
		return model.User{}, err
	}
	for _, existing := range users {
		if strings.EqualFold(existing.Username, u.Username) {
			return model.User{}, fmt.Errorf("username %q already exists", u.Username)
		}
	}
	if u.ID == "" {
		u.ID = nextID("u", len(users), func(i int) string { return users[i].ID })
	}
	users = append(users, u)
	if err := s.users.SaveAll(users); err != nil {
		slog.Error("failed to create user", "username", u.Username, "error", err)
		return model.User{}, err
	}
	slog.Info("created user", "id", u.ID, "username", u.Username, "role", u.Role)
	return u, nil
}

// SaveUser replaces the user with the same ID, or appends it.
func (s *Store) SaveUser(u model.User) error {
	users, err := s.users.LoadAll()
	if err != nil {
		return err
	}
	users = upsert(users, u, func(x model.User) bool { return strings.EqualFold(x.ID, u.ID) })
	return s.users.SaveAll(users)
}

// GetUserByUsername returns a user by username, or nil if not found.
func (s *Store) GetUserByUsername(username string) (*model.User, error) {
	users, err := s.users.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(users, func(u model.User) bool { return strings.EqualFold(u.Username, username) }), nil
}

// GetUserByID returns a user by ID, or nil if not found.
func (s *Store) GetUserByID(id string) (*model.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	users, err := s.users.LoadAll()
	if err != nil {
		return nil, err
	}
	return findOne(users, func(u model.User) bool { return strings.EqualFold(u.ID, id) }), nil
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	return s.users.LoadAll()
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	users, err := s.users.LoadAll()
	return len(users), err
}

// nextID returns prefix followed by the max numeric suffix plus one, zero padded to three digits.
func nextID(prefix string, n int, idAt func(int) string) string {
	max := 0
	for i := 0; i < n; i++ {
		id := idAt(i)
		if len(id) <= len(prefix) || !strings.EqualFold(id[:len(prefix)], prefix) {
			continue
		}
		if num, err := strconv.Atoi(id[len(prefix):]); err == nil && num > max {
			max = num
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}
