package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/okian/quals/pkg/logger"
)

// Option configures a Server.
type Option func(*Server)

// WithBasicAuth protects every route except health with HTTP basic auth.
// An empty username disables authentication.
func WithBasicAuth(username, password string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// WithDocs mounts API documentation routes on the router.
func WithDocs(mount func(chi.Router)) Option {
	return func(s *Server) {
		s.docs = mount
	}
}

// WithLogger sets the logger used for failed requests.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}
