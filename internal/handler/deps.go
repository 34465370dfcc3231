package handler

import (
	"whatsgram/internal/app/db"
	"whatsgram/internal/app/hub"
	"whatsgram/internal/configs"
)

// AppDeps holds the collaborators of the development backend handlers.
type AppDeps struct {
	Config *configs.AppConfig
	DB     *db.Queries
	Hub    *hub.Hub
}
