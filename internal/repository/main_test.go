package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"huddle/internal/database"
	"huddle/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestStore returns a Store over a fresh in-memory SQLite database.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewStore(db)
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)
	return gormDB, mock
}

func mustCharacter(t *testing.T, s *Store, name string, teamID *uint) *models.Character {
	t.Helper()
	c := &models.Character{DisplayName: name, TeamID: teamID, AccountID: 1}
	require.NoError(t, s.Characters.Create(context.Background(), c))
	return c
}

// mustPost creates a post with a deterministic created_at so ordering
// assertions do not depend on clock resolution.
func mustPost(t *testing.T, s *Store, author uint, visibility models.Visibility, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:   author,
		Content:    fmt.Sprintf("post by %d", author),
		Visibility: visibility,
		PostType:   models.PostTypeText,
		CreatedAt:  at,
	}
	require.NoError(t, s.Posts.Create(context.Background(), p))
	return p
}

func teamID(id uint) *uint {
	return &id
}
