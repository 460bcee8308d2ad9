package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store groups the repositories over one connection or one transaction.
type Store struct {
	db *gorm.DB

	Users    *UserRepository
	Follows  *FollowRepository
	Posts    *PostRepository
	Comments *CommentRepository
	Likes    *LikeRepository
	Reposts  *RepostRepository
	Shares   *ShareRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:       db,
		Users:    NewUserRepository(db),
		Follows:  NewFollowRepository(db),
		Posts:    NewPostRepository(db),
		Comments: NewCommentRepository(db),
		Likes:    NewLikeRepository(db),
		Reposts:  NewRepostRepository(db),
		Shares:   NewShareRepository(db),
	}
}

// Transaction runs fn against a Store bound to a single database
// transaction. fn must not use the outer Store.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching query literally anywhere
// in the column. Use it with "ESCAPE '\'".
func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// authorColumns keeps preloaded authors to their public fields.
func authorColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name", "username", "avatar")
}

type countRow struct {
	ID    uuid.UUID
	Total int64
}

func countMap(rows []countRow) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Total
	}
	return counts
}

func idSet(ids []uuid.UUID) map[uuid.UUID]bool {
	set := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
