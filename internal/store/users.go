package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/palengkeplus/palengke/internal/domain"
)

// UserRepository owns user accounts and their permission grants.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.SysUser, error) {
	var u domain.SysUser
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, wrapDBErr(err, "query user")
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.SysUser, error) {
	var u domain.SysUser
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, wrapDBErr(err, "query user by username")
	}
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, u *domain.SysUser) error {
	return wrapDBErr(r.db.WithContext(ctx).Create(u).Error, "create user")
}

func (r *UserRepository) Update(ctx context.Context, u *domain.SysUser) error {
	return wrapDBErr(r.db.WithContext(ctx).Save(u).Error, "update user")
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.SysUserPerm{}).Error; err != nil {
			return wrapDBErr(err, "delete user grants")
		}
		res := tx.Where("id = ?", id).Delete(&domain.SysUser{})
		if res.Error != nil {
			return wrapDBErr(res.Error, "delete user")
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]domain.SysUser, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 20
	}
	db := r.db.WithContext(ctx).Model(&domain.SysUser{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, wrapDBErr(err, "count users")
	}
	var rows []domain.SysUser
	if err := db.Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&rows).Error; err != nil {
		return nil, 0, wrapDBErr(err, "list users")
	}
	return rows, total, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id int64) error {
	return wrapDBErr(r.db.WithContext(ctx).Model(&domain.SysUser{}).
		Where("id = ?", id).
		Update("last_login", time.Now()).Error, "touch last login")
}

// Permissions returns the grant rows for one user. No rows means no
// permissions; callers must not widen that into allow-all.
func (r *UserRepository) Permissions(ctx context.Context, userID int64) ([]string, error) {
	var rows []domain.SysUserPerm
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, wrapDBErr(err, "query user permissions")
	}
	names := make([]string, 0, len(rows))
	for _, g := range rows {
		names = append(names, g.Permission)
	}
	return names, nil
}

// ReplacePermissions atomically swaps a user's grant set, matching the
// delete-then-insert shape of the permission editor.
func (r *UserRepository) ReplacePermissions(ctx context.Context, userID int64, names []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&domain.SysUserPerm{}).Error; err != nil {
			return wrapDBErr(err, "clear user permissions")
		}
		now := time.Now()
		for _, name := range names {
			grant := domain.SysUserPerm{UserID: userID, Permission: name, CreatedAt: now}
			if err := tx.Create(&grant).Error; err != nil {
				return wrapDBErr(err, "create user permission")
			}
		}
		return nil
	})
}
