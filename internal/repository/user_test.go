package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"warbler/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	tests := []struct {
		name         string
		userID       uint
		mockBehavior func()
		expectedUser *models.User
		expectedCode string
	}{
		{
			name:   "Success",
			userID: 1,
			mockBehavior: func() {
				rows := sqlmock.NewRows([]string{"id", "username", "email"}).
					AddRow(1, "testuser", "test@test.com")
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1, 1).
					WillReturnRows(rows)
			},
			expectedUser: &models.User{ID: 1, Username: "testuser", Email: "test@test.com"},
		},
		{
			name:   "Not Found",
			userID: 1234567,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(1234567, 1).
					WillReturnError(gorm.ErrRecordNotFound)
			},
			expectedCode: models.CodeNotFound,
		},
		{
			name:   "Database Error",
			userID: 2,
			mockBehavior: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
					WithArgs(2, 1).
					WillReturnError(errors.New("connection reset"))
			},
			expectedCode: models.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockBehavior()
			user, err := repo.GetByID(ctx, tt.userID)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, models.ErrorCode(err))
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, tt.expectedUser.Username, user.Username)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByUsername_NotFoundIsNil(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE username = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs("ghost", 1).
		WillReturnError(gorm.ErrRecordNotFound)

	user, err := repo.GetByUsername(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateIsConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username" (SQLSTATE 23505)`))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Username: "testuser", Email: "test@test.com", Password: "x"})
	assert.Equal(t, models.CodeConflict, models.ErrorCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Stats_CountsEachTable(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	expect := func(table, column string, n int) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "` + table + `" WHERE ` + column + ` = $1`)).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
	}
	expect("messages", "user_id", 3)
	expect("follows", "user_following_id", 2)
	expect("follows", "user_being_followed_id", 5)
	expect("likes", "user_id", 1)

	stats, err := repo.Stats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, models.UserStats{Messages: 3, Following: 2, Followers: 5, Likes: 1}, *stats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SearchAndUpdate(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	createUser(t, db, "testuser")
	createUser(t, db, "abc")
	other := createUser(t, db, "TestOther")

	all, err := repo.Search(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := repo.Search(ctx, "test", 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "testuser", found[0].Username)
	assert.Equal(t, "TestOther", found[1].Username)

	none, err := repo.Search(ctx, "zzz", 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	other.Username = "abc"
	assert.Equal(t, models.CodeConflict, models.ErrorCode(repo.Update(ctx, other)))

	other.Username = "renamed"
	other.Bio = "hello"
	require.NoError(t, repo.Update(ctx, other))

	fresh, err := repo.GetByIDFresh(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", fresh.Username)
	assert.Equal(t, "hello", fresh.Bio)
	assert.Equal(t, "HASHED_PASSWORD", fresh.Password)
}
