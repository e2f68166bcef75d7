package entity

import (
	"time"

	"github.com/questx-lab/raffle/pkg/enum"
)

type Role string

var (
	RoleAdmin    = enum.New(Role("admin"), "admin")
	RoleOperator = enum.New(Role("operator"), "operator")
)

type RaffleRole struct {
	Address   Address `gorm:"primaryKey;size:42"`
	Role      Role    `gorm:"primaryKey;size:16"`
	GrantedBy Address
	CreatedAt time.Time
}
