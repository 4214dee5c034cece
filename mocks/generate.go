package mocks

//go:generate mockgen -destination=./mock_stats_source.go -package=mocks botdash/internal/app StatsSource
