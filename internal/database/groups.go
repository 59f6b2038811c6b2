package database

import (
	"database/sql"

	"github.com/google/uuid"
)

func (s *Service) CreateGroup(tx *sql.Tx, creatorID, name string) (*Group, error) {
	id := uuid.NewString()
	query := `INSERT INTO groups (id, creator, name) VALUES (?, ?, ?);`
	if _, err := tx.Exec(query, id, creatorID, name); err != nil {
		return nil, err
	}
	return s.GetGroupByID(tx, id)
}

func (s *Service) GetGroupByID(db DBorTx, id string) (*Group, error) {
	query := `SELECT id, creator, name, created_at FROM groups WHERE id = ?;`
	group := &Group{}
	err := db.QueryRow(query, id).Scan(&group.ID, &group.Creator, &group.Name, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (s *Service) GetAllGroups(db DBorTx) ([]*Group, error) {
	query := `SELECT id, creator, name, created_at FROM groups ORDER BY created_at DESC;`
	return s.queryGroups(db, query)
}

// GetGroupsByCreator returns the groups a user owns.
func (s *Service) GetGroupsByCreator(db DBorTx, creatorID string) ([]*Group, error) {
	query := `SELECT id, creator, name, created_at FROM groups WHERE creator = ? ORDER BY created_at DESC;`
	return s.queryGroups(db, query, creatorID)
}

// GetOwnedGroupsWithoutMember returns the groups owned by ownerID that
// memberID does NOT belong to yet. Used to populate "invite to group" pickers.
func (s *Service) GetOwnedGroupsWithoutMember(db DBorTx, ownerID, memberID string) ([]*Group, error) {
	query := `
		SELECT g.id, g.creator, g.name, g.created_at
		FROM groups g
		LEFT JOIN group_members gm ON g.id = gm.group_id AND gm.user_id = ?
		WHERE g.creator = ? AND gm.user_id IS NULL
		ORDER BY g.created_at DESC;`
	return s.queryGroups(db, query, memberID, ownerID)
}

func (s *Service) queryGroups(db DBorTx, query string, args ...interface{}) ([]*Group, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*Group
	for rows.Next() {
		group := &Group{}
		if err := rows.Scan(&group.ID, &group.Creator, &group.Name, &group.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// UpdateGroup replaces the mutable group fields (creator and name).
func (s *Service) UpdateGroup(tx *sql.Tx, group *Group) (*Group, error) {
	query := `UPDATE groups SET creator = ?, name = ? WHERE id = ?;`
	if _, err := tx.Exec(query, group.Creator, group.Name, group.ID); err != nil {
		return nil, err
	}
	return s.GetGroupByID(tx, group.ID)
}

func (s *Service) DeleteGroup(tx *sql.Tx, groupID string) error {
	_, err := tx.Exec(`DELETE FROM groups WHERE id = ?;`, groupID)
	return err
}

// --- Membership ---

func (s *Service) AddGroupMember(tx *sql.Tx, groupID, userID string) error {
	query := `INSERT INTO group_members (user_id, group_id) VALUES (?, ?);`
	_, err := tx.Exec(query, userID, groupID)
	return err
}

func (s *Service) RemoveGroupMember(tx *sql.Tx, groupID, userID string) error {
	query := `DELETE FROM group_members WHERE user_id = ? AND group_id = ?;`
	_, err := tx.Exec(query, userID, groupID)
	return err
}

func (s *Service) IsUserGroupMember(db DBorTx, groupID, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?);`
	var exists bool
	err := db.QueryRow(query, groupID, userID).Scan(&exists)
	return exists, err
}

// GetGroupsOfUser returns every group the user is a member of.
func (s *Service) GetGroupsOfUser(db DBorTx, userID string) ([]*Group, error) {
	query := `
		SELECT g.id, g.creator, g.name, g.created_at
		FROM groups g
		JOIN group_members gm ON g.id = gm.group_id
		WHERE gm.user_id = ?
		ORDER BY g.created_at DESC;`
	return s.queryGroups(db, query, userID)
}

// GetMembersOfGroup returns the member users of a group.
func (s *Service) GetMembersOfGroup(db DBorTx, groupID string) ([]*User, error) {
	query := `
		SELECT ` + prefixedUserColumns("u") + `
		FROM users u
		JOIN group_members gm ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY u.username;`

	rows, err := db.Query(query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*User
	for rows.Next() {
		member, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}
