package app

import (
	"github.com/go-chi/oauth"

	"github.com/mbolis/quick-form/config"
	"github.com/mbolis/quick-form/database"
	"github.com/mbolis/quick-form/delivery"
	"github.com/mbolis/quick-form/model"
	"github.com/mbolis/quick-form/registry"
)

// App bundles what the HTTP handlers need.
type App struct {
	Store       *database.Store
	Forms       *registry.Registry
	Shares      *delivery.ShareTokens
	Invitations model.Sender
	*oauth.BearerServer
	config.Config
}
