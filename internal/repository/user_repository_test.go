package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/admin-platform/internal/model"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserRepo(db), mock
}

var userCols = []string{"id", "email", "password_hash", "first_name", "last_name", "role", "status",
	"avatar_url", "email_verified", "last_login_at", "created_at", "updated_at"}

func TestFindByEmail_NormalizesAndScans(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1")).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "a@x.com", "$2a$hash", "Ada", "L", "admin", "active", nil, true, nil, created, created))

	u, err := repo.FindByEmail(context.Background(), "  A@X.com ")
	require.NoError(t, err)
	assert.Equal(t, "u-1", u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
	assert.Equal(t, model.RoleAdmin, u.Role)
	assert.Equal(t, model.StatusActive, u.Status)
	assert.Nil(t, u.AvatarURL)
	assert.Nil(t, u.LastLoginAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindByID_DriverErrorIsWrapped(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs("u-1").WillReturnError(errors.New("conn reset"))

	_, err := repo.FindByID(context.Background(), "u-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "conn reset")
}

func TestUpdateLastLogin(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	at := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET last_login_at=? WHERE id=?")).
		WithArgs(at, "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateLastLogin(context.Background(), "u-1", at))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AssignsIDAndMapsDuplicate(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "new@x.com", "hash", "N", "U", "user", "pending", nil, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u := &model.User{Email: "New@X.com", PasswordHash: "hash", FirstName: "N", LastName: "U",
		Role: model.RoleUser, Status: model.StatusPending}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Len(t, u.ID, 36)
	assert.Equal(t, "new@x.com", u.Email)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})
	err := repo.Create(context.Background(), &model.User{Email: "new@x.com", Role: model.RoleUser, Status: model.StatusPending})
	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_BuildsFilters(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE status=? AND role=? AND (email LIKE ? ESCAPE '!' OR first_name LIKE ? ESCAPE '!' OR last_name LIKE ? ESCAPE '!') ORDER BY created_at DESC")).
		WithArgs("active", "admin", "%ada%", "%ada%", "%ada%").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u-1", "ada@x.com", "h", "Ada", "L", "admin", "active", "https://img", false, now, now, now))

	users, err := repo.List(context.Background(), UserFilter{Status: model.StatusActive, Role: model.RoleAdmin, Search: " ada "})
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].AvatarURL)
	assert.Equal(t, "https://img", *users[0].AvatarURL)
	require.NotNil(t, users[0].LastLoginAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SearchIsLiteral(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`FROM users WHERE \(email LIKE \? ESCAPE '!'`).
		WithArgs("%!%!_a!!b%", "%!%!_a!!b%", "%!%!_a!!b%").
		WillReturnRows(sqlmock.NewRows(userCols))

	_, err := repo.List(context.Background(), UserFilter{Search: "%_a!b"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NoFilters(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectQuery(`^SELECT .* FROM users ORDER BY created_at DESC$`).
		WillReturnRows(sqlmock.NewRows(userCols))

	users, err := repo.List(context.Background(), UserFilter{})
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestUpdateStatus(t *testing.T) {
	repo, mock := newUserRepoWithMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET status=? WHERE id=?")).
		WithArgs("suspended", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "u-1", model.StatusSuspended))
	require.NoError(t, mock.ExpectationsWereMet())
}
