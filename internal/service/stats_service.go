package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jobportal/internal/analytics"
	"jobportal/internal/model"
	"jobportal/internal/util"
)

// PortalStats is the admin dashboard summary. Entity totals come from the
// credential and posting stores; the activity breakdown comes from the
// analytics store and may be empty when it is unreachable.
type PortalStats struct {
	TotalCandidates int64                  `json:"total_candidates"`
	TotalEmployers  int64                  `json:"total_employers"`
	TotalPostings   int64                  `json:"total_postings"`
	TotalVacancies  int64                  `json:"total_vacancies"`
	WeeklyActivity  []analytics.EventCount `json:"weekly_activity,omitempty"`
}

type StatsService struct {
	accounts model.AccountRepository
	jobs     model.JobRepository
	recorder *analytics.Recorder
}

func NewStatsService(accounts model.AccountRepository, jobs model.JobRepository, recorder *analytics.Recorder) *StatsService {
	return &StatsService{
		accounts: accounts,
		jobs:     jobs,
		recorder: recorder,
	}
}

func (s *StatsService) Portal(ctx context.Context) (*PortalStats, error) {
	stats := &PortalStats{}

	var err error
	if stats.TotalCandidates, err = s.accounts.CountByRole(ctx, model.RoleCandidate); err != nil {
		return nil, err
	}
	if stats.TotalEmployers, err = s.accounts.CountByRole(ctx, model.RoleEmployer); err != nil {
		return nil, err
	}
	if stats.TotalPostings, err = s.jobs.Count(ctx); err != nil {
		return nil, err
	}
	if stats.TotalVacancies, err = s.jobs.SumVacancies(ctx); err != nil {
		return nil, err
	}

	if s.recorder != nil {
		activity, err := s.recorder.CountsSince(ctx, time.Now().UTC().AddDate(0, 0, -7))
		if err != nil {
			util.Warn("weekly activity query failed", zap.Error(err))
		} else {
			stats.WeeklyActivity = activity
		}
	}
	return stats, nil
}
