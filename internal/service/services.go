// Package service contains the business logic layer.
package service

import (
	"log/slog"

	"github.com/courseloop/courseloop-api/internal/auth"
	"github.com/courseloop/courseloop-api/internal/config"
	"github.com/courseloop/courseloop-api/internal/repository"
)

// Services holds all service instances.
type Services struct {
	Auth    *AuthService
	Course  *CourseService
	Usage   *UsageService
	Advisor *AdvisorService
}

// NewServices creates all service instances.
func NewServices(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) *Services {
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry, cfg.RefreshExpiry)

	authSvc := NewAuthService(cfg, repos, issuer, logger)
	courseSvc := NewCourseService(cfg, repos, logger)
	usageSvc := NewUsageService(cfg, repos, logger)

	advisorClient := NewAdvisorClient(cfg, logger)
	advisorSvc := NewAdvisorService(cfg, repos, advisorClient, usageSvc, logger)

	return &Services{
		Auth:    authSvc,
		Course:  courseSvc,
		Usage:   usageSvc,
		Advisor: advisorSvc,
	}
}
