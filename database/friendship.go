package database

import (
	"database/sql"

	"socialgraph/models"
)

// FriendshipRepository stores directed friendship edges in the friendships table.
type FriendshipRepository struct {
	*table[models.Friendship]
}

func NewFriendshipRepository(db *DB) *FriendshipRepository {
	return &FriendshipRepository{&table[models.Friendship]{
		db:         db,
		name:       "friendships",
		columns:    []string{"owner_id", "target_id", "target_name", "nickname", "favorite", "created_at"},
		filterable: []string{models.ColumnOwnerID, models.ColumnTargetID},
		updatable:  []string{"target_name", "nickname", "favorite"},
		values: func(f *models.Friendship) []any {
			return []any{
				f.OwnerID.String(), f.TargetID.String(), f.TargetName,
				nullString(f.Nickname), boolToInt(f.Favorite), toMillis(f.CreatedAt),
			}
		},
		updates: func(f *models.Friendship) []any {
			return []any{f.TargetName, nullString(f.Nickname), boolToInt(f.Favorite)}
		},
		scan:  scanFriendship,
		getID: func(f *models.Friendship) string { return f.ID },
		setID: func(f *models.Friendship, id string) { f.ID = id },
	}}
}

func scanFriendship(row scanner) (models.Friendship, error) {
	var (
		f                 models.Friendship
		ownerID, targetID string
		nickname          sql.NullString
		favorite          int
		createdAt         int64
	)
	if err := row.Scan(&f.ID, &ownerID, &targetID, &f.TargetName, &nickname, &favorite, &createdAt); err != nil {
		return f, err
	}

	var err error
	if f.OwnerID, err = parseUUID("owner_id", ownerID); err != nil {
		return f, err
	}
	if f.TargetID, err = parseUUID("target_id", targetID); err != nil {
		return f, err
	}
	f.Nickname = nickname.String
	f.Favorite = favorite != 0
	f.CreatedAt = fromMillis(createdAt)
	return f, nil
}
