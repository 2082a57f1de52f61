package httpCors

import (
	"github.com/rs/cors"

	"sisterhood-backend/config"
)

func CorsSettings(cfg *config.Config) *cors.Cors {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedOrigins:   origins,
		AllowCredentials: true,
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"Authorization", "X-Request-ID"},
		Debug:            cfg.LogLevel == "debug",
	})
}
