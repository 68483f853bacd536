// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	sessionstore "github.com/parleyhq/parley/internal/app/store/sessions"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database
	Sessions      *sessionstore.Store
}
