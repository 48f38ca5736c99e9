package database

import (
	"database/sql"

	"socialgraph/models"
)

// BlacklistRepository stores directed block edges in the blacklist table.
type BlacklistRepository struct {
	*table[models.BlacklistEntry]
}

func NewBlacklistRepository(db *DB) *BlacklistRepository {
	return &BlacklistRepository{&table[models.BlacklistEntry]{
		db:         db,
		name:       "blacklist",
		columns:    []string{"owner_id", "target_id", "target_name", "reason", "created_at"},
		filterable: []string{models.ColumnOwnerID, models.ColumnTargetID},
		updatable:  []string{"target_name", "reason"},
		values: func(b *models.BlacklistEntry) []any {
			return []any{
				b.OwnerID.String(), b.TargetID.String(), b.TargetName,
				nullString(b.Reason), toMillis(b.CreatedAt),
			}
		},
		updates: func(b *models.BlacklistEntry) []any {
			return []any{b.TargetName, nullString(b.Reason)}
		},
		scan:  scanBlacklistEntry,
		getID: func(b *models.BlacklistEntry) string { return b.ID },
		setID: func(b *models.BlacklistEntry, id string) { b.ID = id },
	}}
}

func scanBlacklistEntry(row scanner) (models.BlacklistEntry, error) {
	var (
		b                 models.BlacklistEntry
		ownerID, targetID string
		reason            sql.NullString
		createdAt         int64
	)
	if err := row.Scan(&b.ID, &ownerID, &targetID, &b.TargetName, &reason, &createdAt); err != nil {
		return b, err
	}

	var err error
	if b.OwnerID, err = parseUUID("owner_id", ownerID); err != nil {
		return b, err
	}
	if b.TargetID, err = parseUUID("target_id", targetID); err != nil {
		return b, err
	}
	b.Reason = reason.String
	b.CreatedAt = fromMillis(createdAt)
	return b, nil
}
