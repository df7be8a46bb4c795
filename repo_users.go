package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UserFilter drives Find. All predicates are optional and conjunctive.
type UserFilter struct {
	// Name and Email are substring matches.
	Name  string
	Email string
	// IDs is a membership predicate; a single element is an exact match.
	IDs []int64
	// UpdatedSince is an inclusive lower bound on updated_at.
	UpdatedSince *time.Time
	Offset       int
	Limit        int
	// IncludeCredentials joins the credentials row onto each result.
	IncludeCredentials bool
}

// UserLookup is an exact match on exactly one of the unique keys.
type UserLookup struct {
	ID                 int64
	Email              string
	Name               string
	IncludeCredentials bool
}

func (l UserLookup) validate() error {
	keys := 0
	if l.ID != 0 {
		keys++
	}
	if l.Email != "" {
		keys++
	}
	if l.Name != "" {
		keys++
	}
	if keys != 1 {
		return goerrors.New("lookup requires exactly one of id, email, or name", goerrors.CategoryBadInput)
	}
	return nil
}

// Users is the persistence surface for user records and their credentials.
type Users interface {
	Find(ctx context.Context, filter UserFilter) ([]*User, error)
	FindTx(ctx context.Context, tx bun.IDB, filter UserFilter) ([]*User, error)
	FindOne(ctx context.Context, lookup UserLookup) (*User, error)
	FindOneTx(ctx context.Context, tx bun.IDB, lookup UserLookup) (*User, error)

	CreateWithCredentials(ctx context.Context, record *User, hash string) (*User, error)
	CreateWithCredentialsTx(ctx context.Context, tx bun.IDB, record *User, hash string) (*User, error)

	UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User, name, hash *string) (*User, error)
	SoftDeleteTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
}

type usersRepo struct {
	db *bun.DB
}

var _ Users = (*usersRepo)(nil)

func NewUsersRepository(db *bun.DB) Users {
	return &usersRepo{db: db}
}

// IsRecordNotFound reports whether err is the repository's empty-result error.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || goerrors.IsNotFound(err)
}

func recordNotFound(metadata map[string]any) error {
	return goerrors.New("user record not found", goerrors.CategoryNotFound).
		WithMetadata(metadata)
}

func (r *usersRepo) Find(ctx context.Context, filter UserFilter) ([]*User, error) {
	return r.FindTx(ctx, r.db, filter)
}

func (r *usersRepo) FindTx(ctx context.Context, tx bun.IDB, filter UserFilter) ([]*User, error) {
	records := []*User{}

	q := tx.NewSelect().Model(&records)

	if filter.Name != "" {
		q = q.Where("?TableAlias.name LIKE ?", "%"+filter.Name+"%")
	}

	if filter.Email != "" {
		q = q.Where("?TableAlias.email LIKE ?", "%"+filter.Email+"%")
	}

	if len(filter.IDs) == 1 {
		q = q.Where("?TableAlias.id = ?", filter.IDs[0])
	} else if len(filter.IDs) > 1 {
		q = q.Where("?TableAlias.id IN (?)", bun.In(filter.IDs))
	}

	if filter.UpdatedSince != nil {
		q = q.Where("?TableAlias.updated_at >= ?", *filter.UpdatedSince)
	}

	if filter.IncludeCredentials {
		q = q.Relation("Credentials")
	}

	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	if err := q.OrderExpr("?TableAlias.id ASC").Scan(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query users")
	}

	return records, nil
}

func (r *usersRepo) FindOne(ctx context.Context, lookup UserLookup) (*User, error) {
	return r.FindOneTx(ctx, r.db, lookup)
}

func (r *usersRepo) FindOneTx(ctx context.Context, tx bun.IDB, lookup UserLookup) (*User, error) {
	if err := lookup.validate(); err != nil {
		return nil, err
	}

	record := &User{}
	q := tx.NewSelect().Model(record)

	switch {
	case lookup.ID != 0:
		q = q.Where("?TableAlias.id = ?", lookup.ID)
	case lookup.Email != "":
		q = q.Where("?TableAlias.email = ?", lookup.Email)
	default:
		q = q.Where("?TableAlias.name = ?", lookup.Name)
	}

	if lookup.IncludeCredentials {
		q = q.Relation("Credentials")
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, recordNotFound(map[string]any{
				"id": lookup.ID, "email": lookup.Email, "name": lookup.Name,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}

	return record, nil
}

func (r *usersRepo) CreateWithCredentials(ctx context.Context, record *User, hash string) (*User, error) {
	return r.CreateWithCredentialsTx(ctx, r.db, record, hash)
}

// CreateWithCredentialsTx inserts the credentials row and the user row as a
// unit. Callers are expected to run it inside RunInTx so a failure leaves
// neither row behind.
func (r *usersRepo) CreateWithCredentialsTx(ctx context.Context, tx bun.IDB, record *User, hash string) (*User, error) {
	cred := &Credentials{Hash: hash}
	if _, err := tx.NewInsert().Model(cred).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create credentials")
	}

	record.CredentialsID = &cred.ID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = record.CreatedAt

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		// Email uniqueness lives in the schema; duplicates surface here.
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
	}

	record.Credentials = cred
	return record, nil
}

// UpdateProfileTx applies the mutable profile fields. A nil name leaves the
// display name alone; a nil hash leaves the credentials row alone. The user
// row's updated_at is always bumped, even when only the password changes.
func (r *usersRepo) UpdateProfileTx(ctx context.Context, tx bun.IDB, record *User, name, hash *string) (*User, error) {
	now := time.Now()

	q := tx.NewUpdate().Model((*User)(nil)).
		Set("updated_at = ?", now).
		Where("id = ?", record.ID)

	if name != nil {
		q = q.Set("name = ?", *name)
	}

	if _, err := q.Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	if hash != nil && record.CredentialsID != nil {
		_, err := tx.NewUpdate().Model((*Credentials)(nil)).
			Set("hash = ?", *hash).
			Where("id = ?", *record.CredentialsID).
			Exec(ctx)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update credentials")
		}
	}

	return r.FindOneTx(ctx, tx, UserLookup{ID: record.ID})
}

// SoftDeleteTx writes the deletion sentinels onto the user row and removes
// the credentials row. The record survives; the identity does not.
func (r *usersRepo) SoftDeleteTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	credID := record.CredentialsID

	_, err := tx.NewUpdate().Model((*User)(nil)).
		Set("name = ?", DeletedUserName).
		Set("email = ?", DeletedUserEmail).
		Set("credentials_id = NULL").
		Set("updated_at = ?", time.Now()).
		Where("id = ?", record.ID).
		Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user deleted")
	}

	if credID != nil {
		_, err := tx.NewDelete().Model((*Credentials)(nil)).
			Where("id = ?", *credID).
			Exec(ctx)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove credentials")
		}
	}

	return r.FindOneTx(ctx, tx, UserLookup{ID: record.ID})
}
