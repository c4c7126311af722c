package subscriptions

import (
	"strings"

	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/errors"
)

// NewFromSettings builds the store selected by configuration.
func NewFromSettings(settings *conf.StoreSettings, debug bool) (Store, error) {
	switch strings.ToLower(settings.Backend) {
	case "", "none":
		return NopStore{}, nil
	case "rest":
		return NewRESTStore(&settings.REST)
	case "sqlite":
		return NewSQLiteStore(settings.SQLite.Path, debug)
	default:
		return nil, errors.Newf("unknown subscription store backend %q", settings.Backend).
			Component("subscriptions").
			Category(errors.CategoryConfiguration).
			Build()
	}
}
