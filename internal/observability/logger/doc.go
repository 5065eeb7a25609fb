// Package logger expone un logger Zap único con scoping por request.
//
// Inicialización (una vez, en main):
//
//	logger.Init(logger.Config{Env: cfg.Log.Env, Level: cfg.Log.Level, ServiceName: "socialauth"})
//	defer logger.Sync()
//
// En services y controllers se usa siempre el logger del contexto, que el
// middleware de logging ya enriqueció con request_id, method y path:
//
//	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("social.engine"))
//	log.Info("social login completed", logger.Provider(p), logger.Outcome("logged_in"))
//
// Los emails nunca se loguean en claro: usar EmailMasked.
package logger
