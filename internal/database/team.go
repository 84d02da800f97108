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

package database

import (
	"context"
	"fmt"
	"strings"

	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (s *Service) GetTeamMembers(ctx context.Context) ([]models.TeamMember, error) {
	return s.queryTeam(ctx, queryGetTeamMembers, "team members")
}

// GetBillSplitters returns the members flagged to share expenses
func (s *Service) GetBillSplitters(ctx context.Context) ([]models.TeamMember, error) {
	return s.queryTeam(ctx, queryGetBillSplitters, "bill splitters")
}

// GetFounders returns the members flagged as founders
func (s *Service) GetFounders(ctx context.Context) ([]models.TeamMember, error) {
	return s.queryTeam(ctx, queryGetFounders, "founders")
}

func (s *Service) queryTeam(ctx context.Context, query, label string) ([]models.TeamMember, error) {
	zap.L().Debug("Querying team", zap.String("set", label))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		zap.L().Error("Failed to query team", zap.String("set", label), zap.Error(err))
		return nil, fmt.Errorf("unable to query %s: %w", label, err)
	}
	defer closeRows(rows)

	var members []models.TeamMember
	for rows.Next() {
		member, err := scanTeamMember(rows)
		if err != nil {
			zap.L().Error("Failed to scan team member row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan team member row: %w", err)
		}
		members = append(members, *member)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during team row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating team rows: %w", err)
	}

	zap.L().Debug("Retrieved team", zap.String("set", label), zap.Int("count", len(members)))
	return members, nil
}

func (s *Service) UpsertTeamMember(ctx context.Context, params store.TeamMemberParams) (*models.TeamMember, error) {
	email := strings.ToLower(strings.TrimSpace(params.Email))
	if email == "" || strings.TrimSpace(params.Name) == "" {
		return nil, fmt.Errorf("team member requires name and email")
	}

	zap.L().Info("Upserting team member",
		zap.String("name", params.Name),
		zap.String("email", email),
		zap.Bool("founder", params.IsFounder),
		zap.Bool("splits_expenses", params.SplitsExpenses))

	now := s.now()
	member, err := scanTeamMember(s.db.QueryRowContext(ctx, queryUpsertTeamMember,
		uuid.New().String(), params.Name, email, params.IsFounder, params.SplitsExpenses, now, now))
	if err != nil {
		zap.L().Error("Failed to upsert team member", zap.String("email", email), zap.Error(err))
		return nil, fmt.Errorf("unable to upsert team member: %w", err)
	}
	return member, nil
}

func scanTeamMember(row rowScanner) (*models.TeamMember, error) {
	var m models.TeamMember
	if err := row.Scan(&m.Id, &m.Name, &m.Email, &m.IsFounder, &m.SplitsExpenses, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
