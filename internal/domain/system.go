package domain

import (
	"time"
)

type SysConfig struct {
	ID        int64     `json:"id,string" form:"id"`
	Sort      int       `json:"sort" form:"sort"`
	Type      string    `gorm:"index" json:"type" form:"type"`
	Name      string    `gorm:"index" json:"name" form:"name"`
	Value     string    `json:"value" form:"value"`
	Remark    string    `json:"remark" form:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysConfig) TableName() string {
	return "sys_config"
}

// Closed role set. Admin bypasses grant rows the same way any other
// permission resolves, never through a username comparison.
const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

type SysUser struct {
	ID        int64     `json:"id,string" form:"id"`
	Username  string    `gorm:"uniqueIndex;size:64" json:"username" form:"username"`
	Email     string    `gorm:"uniqueIndex;size:128" json:"email" form:"email"`
	Password  string    `json:"-" form:"-"`
	Role      string    `gorm:"size:16;index" json:"role" form:"role"`
	Status    string    `gorm:"size:16" json:"status" form:"status"`
	Remark    string    `json:"remark" form:"remark"`
	LastLogin time.Time `json:"last_login"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName Specify table name
func (SysUser) TableName() string {
	return "sys_user"
}

// SysUserPerm grants one named permission to one user. Absence of any row
// for a user means zero permissions, never allow-all.
type SysUserPerm struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     int64     `gorm:"index:idx_user_perm,unique" json:"user_id,string"`
	Permission string    `gorm:"size:50;index:idx_user_perm,unique" json:"permission"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName Specify table name
func (SysUserPerm) TableName() string {
	return "sys_user_perm"
}

type SysUserLog struct {
	ID        int64     `json:"id,string"`
	Username  string    `json:"username"`
	UserIp    string    `json:"user_ip"`
	OptAction string    `json:"opt_action"`
	OptDesc   string    `json:"opt_desc"`
	OptTime   time.Time `json:"opt_time"`
}

// TableName Specify table name
func (SysUserLog) TableName() string {
	return "sys_user_log"
}
