package users

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateUserMessage carries the attributes for a new account.
type CreateUserMessage struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Admin          bool   `json:"admin"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

func (m CreateUserMessage) Type() string { return "user.create" }

// UpdateUserMessage mutates name and/or password. Nil fields are left
// untouched; email and the admin flag cannot be changed after creation.
type UpdateUserMessage struct {
	ID       int64   `json:"id"`
	Name     *string `json:"name,omitempty"`
	Password *string `json:"password,omitempty"`
}

func (m UpdateUserMessage) Type() string { return "user.update" }

// DeleteUserMessage identifies the account to soft-delete.
type DeleteUserMessage struct {
	ID int64 `json:"id"`
}

func (m DeleteUserMessage) Type() string { return "user.delete" }

// Outcome distinguishes "nothing to do" from "something changed" for the
// update and delete operations, so callers are not left guessing when a
// mutation silently had no effect.
type Outcome string

const (
	// OutcomeApplied means the mutation was persisted.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyDeleted means the record carries the soft-delete
	// sentinels and was left untouched.
	OutcomeAlreadyDeleted Outcome = "already-deleted"
	// OutcomeNotFound means no record exists for the given id.
	OutcomeNotFound Outcome = "not-found"
)

// UpdateResult reports the tri-state outcome of an update.
type UpdateResult struct {
	Outcome Outcome `json:"outcome"`
	User    *User   `json:"user,omitempty"`
}

// DeleteResult wraps the soft-deleted record, mirroring the result envelope
// the delete operation returns to clients.
type DeleteResult struct {
	Outcome Outcome `json:"outcome"`
	User    *User   `json:"users,omitempty"`
}

// AccountManager orchestrates the account lifecycle: it owns hashing on
// create/update and the transaction boundaries that keep the user and
// credentials rows consistent.
type AccountManager struct {
	repo   RepositoryManager
	logger Logger
}

func NewAccountManager(repo RepositoryManager) *AccountManager {
	return &AccountManager{
		repo:   repo,
		logger: defLogger{},
	}
}

func (m *AccountManager) WithLogger(l Logger) *AccountManager {
	m.logger = l
	return m
}

// CreateUser hashes the password and persists the user and credentials rows
// as one transaction: either both exist afterwards or neither does. Email
// uniqueness is the schema's concern; duplicates surface as a conflict error.
func (m *AccountManager) CreateUser(ctx context.Context, msg CreateUserMessage) (*User, error) {
	hash, err := HashPassword(msg.Password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}

	user := &User{
		Name:           msg.Name,
		Email:          msg.Email,
		IsAdmin:        msg.Admin,
		EmailConfirmed: msg.EmailConfirmed,
	}

	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err = m.repo.Users().CreateWithCredentialsTx(ctx, tx, user, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger.Debug("created user", "id", user.ID, "email", user.Email)
	return user, nil
}

// FindUsers returns all users matching the conjunctive filter. An empty
// filter returns everything, subject to pagination.
func (m *AccountManager) FindUsers(ctx context.Context, filter UserFilter) ([]*User, error) {
	return m.repo.Users().Find(ctx, filter)
}

// FindUser resolves a single user by exactly one unique key. A missing
// record is not an error: the result is simply nil.
func (m *AccountManager) FindUser(ctx context.Context, lookup UserLookup) (*User, error) {
	user, err := m.repo.Users().FindOne(ctx, lookup)
	if err != nil {
		if IsRecordNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// UpdateUser applies name and/or password changes. The outcome is explicit:
// applied, already-deleted (soft-deleted records are never resurrected), or
// not-found.
func (m *AccountManager) UpdateUser(ctx context.Context, msg UpdateUserMessage) (*UpdateResult, error) {
	user, err := m.FindUser(ctx, UserLookup{ID: msg.ID})
	if err != nil {
		return nil, err
	}

	if user == nil {
		return &UpdateResult{Outcome: OutcomeNotFound}, nil
	}

	if user.IsDeleted() || user.Email == DeletedUserEmail {
		return &UpdateResult{Outcome: OutcomeAlreadyDeleted}, nil
	}

	if msg.Name == nil && msg.Password == nil {
		return &UpdateResult{Outcome: OutcomeApplied, User: user}, nil
	}

	var hash *string
	if msg.Password != nil {
		h, err := HashPassword(*msg.Password)
		if err != nil {
			return nil, err
		}
		hash = &h
	}

	var updated *User
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		updated, err = m.repo.Users().UpdateProfileTx(ctx, tx, user, msg.Name, hash)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &UpdateResult{Outcome: OutcomeApplied, User: updated}, nil
}

// DeleteUser soft-deletes an account: the name and email are replaced with
// the deletion sentinels and the credentials row is removed, all in one
// transaction. Deleting an already-deleted user is a no-op.
func (m *AccountManager) DeleteUser(ctx context.Context, msg DeleteUserMessage) (*DeleteResult, error) {
	user, err := m.FindUser(ctx, UserLookup{ID: msg.ID})
	if err != nil {
		return nil, err
	}

	if user == nil {
		return &DeleteResult{Outcome: OutcomeNotFound}, nil
	}

	if user.IsDeleted() {
		return &DeleteResult{Outcome: OutcomeAlreadyDeleted}, nil
	}

	var deleted *User
	err = m.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		deleted, err = m.repo.Users().SoftDeleteTx(ctx, tx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("soft-deleted user", "id", deleted.ID)
	return &DeleteResult{Outcome: OutcomeApplied, User: deleted}, nil
}
