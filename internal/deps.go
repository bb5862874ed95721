package internal

import (
	"deadtab/reminder-api/internal/service"
	"deadtab/reminder-api/internal/store"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Users    store.UserStore
	Activity store.ActivityLog
	Mail     service.Notifier
	Sweeper  *service.Sweeper
}
