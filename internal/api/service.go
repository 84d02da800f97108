/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"bill-scan-go/internal/billing"
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Scanner runs one pipeline invocation
type Scanner interface {
	Run(ctx context.Context, req billing.Request) (*models.ScanReport, error)
}

// HealthChecker reports whether the store is reachable
type HealthChecker interface {
	GetTeamMembers(ctx context.Context) ([]models.TeamMember, error)
}

// ScanService exposes the scan pipeline over HTTP
type ScanService struct {
	scanner     Scanner
	health      HealthChecker
	auth        models.AuthConfig
	defaultDays int
}

func NewScanService(scanner Scanner, health HealthChecker, auth models.AuthConfig, defaultDays int) *ScanService {
	return &ScanService{
		scanner:     scanner,
		health:      health,
		auth:        auth,
		defaultDays: defaultDays,
	}
}

// Router builds the gin engine with logging, recovery and the cron routes
func (s *ScanService) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), Recovery())

	router.GET("/healthz", s.HealthCheck)

	cron := router.Group("/api/cron", CronAuth(s.auth))
	cron.GET("/scan-bills", s.ScanBills)
	cron.POST("/scan-bills", s.ScanBills)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
	return router
}

func (s *ScanService) HealthCheck(c *gin.Context) {
	if _, err := s.health.GetTeamMembers(c.Request.Context()); err != nil {
		zap.L().Error("Database health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": fmt.Sprintf("database health check failed: %v", err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ScanBills runs the pipeline. daysBack is clamped to [1, 60] and a
// non-numeric value means the default. A fatal configuration problem
// answers 500 with the failed report.
func (s *ScanService) ScanBills(c *gin.Context) {
	req := billing.Request{
		DaysBack:  s.defaultDays,
		Mode:      c.Query("mode"),
		SkipEmail: queryBool(c, "skipEmail"),
		SkipBank:  queryBool(c, "skipBank"),
	}
	if raw := strings.TrimSpace(c.Query("daysBack")); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil {
			req.DaysBack = days
		} else {
			zap.L().Warn("Ignoring non-numeric daysBack", zap.String("days_back", raw))
		}
	}

	report, err := s.scanner.Run(c.Request.Context(), req)
	switch {
	case errors.Is(err, billing.ErrInvalidMode):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, store.ErrNoEmailAccounts) && report != nil:
		c.JSON(http.StatusInternalServerError, report)
	case err != nil:
		zap.L().Error("Scan failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	default:
		c.JSON(http.StatusOK, report)
	}
}

func queryBool(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.Query(key))
	return err == nil && v
}
