package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/dazedniteman/pathpal-crm/pkg/composables"
	"github.com/dazedniteman/pathpal-crm/pkg/constants"
)

// Provide stores a value in the request context under the given key.
func Provide(key constants.ContextKey, value any) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := contextWithValue(r.Context(), key, value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func ProvidePool(pool *pgxpool.Pool) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := composables.WithPool(r.Context(), pool)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithTransaction wraps the whole request in a single transaction. A non-2xx
// status rolls the transaction back.
func WithTransaction(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			pool, err := composables.UsePool(r.Context())
			if err != nil {
				http.Error(w, "database unavailable", http.StatusInternalServerError)
				return
			}

			tx, err := pool.Begin(r.Context())
			if err != nil {
				logger.WithError(err).Error("failed to begin transaction")
				http.Error(w, "database unavailable", http.StatusInternalServerError)
				return
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(composables.WithTx(r.Context(), tx)))

			if sw.Status() >= 400 {
				if rbErr := tx.Rollback(r.Context()); rbErr != nil {
					logger.WithError(rbErr).Error("failed to rollback transaction")
				}
				return
			}
			if cErr := tx.Commit(r.Context()); cErr != nil {
				logger.WithError(cErr).Error("failed to commit transaction")
			}
		})
	}
}
