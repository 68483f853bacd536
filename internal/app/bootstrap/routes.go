// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	conversationsfeature "github.com/parleyhq/parley/internal/app/features/conversations"
	foldersfeature "github.com/parleyhq/parley/internal/app/features/folders"
	groupsfeature "github.com/parleyhq/parley/internal/app/features/groups"
	healthfeature "github.com/parleyhq/parley/internal/app/features/health"
	loginfeature "github.com/parleyhq/parley/internal/app/features/login"
	logoutfeature "github.com/parleyhq/parley/internal/app/features/logout"
	settingsfeature "github.com/parleyhq/parley/internal/app/features/settings"
	userinfofeature "github.com/parleyhq/parley/internal/app/features/userinfo"
	usersfeature "github.com/parleyhq/parley/internal/app/features/users"
	"github.com/parleyhq/parley/internal/app/policy/userpolicy"
	convstore "github.com/parleyhq/parley/internal/app/store/conversations"
	folderstore "github.com/parleyhq/parley/internal/app/store/folders"
	groupstore "github.com/parleyhq/parley/internal/app/store/groups"
	membershipstore "github.com/parleyhq/parley/internal/app/store/memberships"
	settingsstore "github.com/parleyhq/parley/internal/app/store/settings"
	userstore "github.com/parleyhq/parley/internal/app/store/users"
	"github.com/parleyhq/parley/internal/app/system/auth"
	"github.com/parleyhq/parley/internal/app/system/gates"
	"github.com/parleyhq/parley/internal/app/system/metrics"
	"github.com/parleyhq/parley/internal/domain/models"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// Every request passes through the identity middleware (config snapshot
// plus mode-appropriate identity loading). The /api surface additionally
// passes through the maintenance gate, except login and logout: login
// decides maintenance itself after verifying credentials so root can get
// in, and logout stays open so blocked users can still end sessions.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	groups := groupstore.New(db)
	memberships := membershipstore.New(db)
	conversations := convstore.New(db)
	folders := folderstore.New(db)
	settings := settingsstore.New(db)
	policy := userpolicy.NewResolver(memberships)
	m := metrics.New()

	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, secure, deps.Sessions, settings, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	sessionMgr.SetUserFetcher(users)
	sessionMgr.SetSSOProvisioner(users)
	sessionMgr.SetMetrics(m)

	r := chi.NewRouter()
	r.Use(sessionMgr.LoadIdentity)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Sessions, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		loginHandler := loginfeature.NewHandler(logger, users, deps.Sessions, sessionMgr, m)
		r.With(gates.RequireMode(models.AuthModeLocal, logger)).Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(logger, sessionMgr, m)
		r.Mount("/logout", logoutfeature.Routes(logoutHandler))

		r.Group(func(r chi.Router) {
			r.Use(gates.Maintenance(logger))

			r.Mount("/me", userinfofeature.Routes(userinfofeature.NewHandler(logger)))

			usersHandler := &usersfeature.Handler{
				Log:           logger,
				Users:         users,
				Memberships:   memberships,
				Conversations: conversations,
				Folders:       folders,
				Sessions:      deps.Sessions,
				Policy:        policy,
				Metrics:       m,
			}
			r.Mount("/users", usersfeature.Routes(usersHandler))

			groupsHandler := &groupsfeature.Handler{
				Log:           logger,
				Groups:        groups,
				Memberships:   memberships,
				Users:         users,
				Conversations: conversations,
				Policy:        policy,
			}
			r.Mount("/groups", groupsfeature.Routes(groupsHandler))

			convHandler := &conversationsfeature.Handler{
				Log:           logger,
				Conversations: conversations,
				Groups:        groups,
				Memberships:   memberships,
			}
			r.Mount("/conversations", conversationsfeature.Routes(convHandler))

			foldersHandler := &foldersfeature.Handler{
				Log:           logger,
				Folders:       folders,
				Conversations: conversations,
			}
			r.Mount("/folders", foldersfeature.Routes(foldersHandler))

			settingsHandler := &settingsfeature.Handler{
				Log:      logger,
				Settings: settings,
				Sessions: deps.Sessions,
				Metrics:  m,
			}
			r.Mount("/settings", settingsfeature.Routes(settingsHandler))
		})
	})

	return r, nil
}
