package db

import (
	"fmt"
	"time"
)

// UsageStats represents token usage statistics
type UsageStats struct {
	TotalTokens   int64
	TotalMessages int64
	ModelStats    map[string]*ModelUsageStats
	DailyStats    []*DailyUsageStats
}

// ModelUsageStats represents usage statistics for a specific model
type ModelUsageStats struct {
	Model         string
	TotalTokens   int64
	MessageCount  int64
	EstimatedCost float64 // in USD
}

// DailyUsageStats represents daily usage statistics
type DailyUsageStats struct {
	Date         time.Time
	TotalTokens  int64
	MessageCount int64
}

// GetUsageStats returns usage statistics for the given window
func (db *DB) GetUsageStats(startDate, endDate time.Time) (*UsageStats, error) {
	stats := &UsageStats{
		ModelStats: make(map[string]*ModelUsageStats),
	}

	err := db.conn.QueryRow(`
		SELECT COALESCE(SUM(tokens_used), 0), COUNT(*)
		FROM messages
		WHERE created_at >= ? AND created_at <= ?
	`, startDate, endDate).Scan(&stats.TotalTokens, &stats.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to get total stats: %w", err)
	}

	rows, err := db.conn.Query(`
		SELECT model, COALESCE(SUM(tokens_used), 0), COUNT(*)
		FROM messages
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY model
		ORDER BY SUM(tokens_used) DESC
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get model stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var model string
		var totalTokens, messageCount int64
		if err := rows.Scan(&model, &totalTokens, &messageCount); err != nil {
			return nil, fmt.Errorf("failed to scan model stats: %w", err)
		}
		stats.ModelStats[model] = &ModelUsageStats{
			Model:         model,
			TotalTokens:   totalTokens,
			MessageCount:  messageCount,
			EstimatedCost: calculateCost(model, totalTokens),
		}
	}

	dailyRows, err := db.conn.Query(`
		SELECT DATE(created_at), COALESCE(SUM(tokens_used), 0), COUNT(*)
		FROM messages
		WHERE created_at >= ? AND created_at <= ?
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at) ASC
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer dailyRows.Close()

	for dailyRows.Next() {
		var dateStr string
		var totalTokens, messageCount int64
		if err := dailyRows.Scan(&dateStr, &totalTokens, &messageCount); err != nil {
			return nil, fmt.Errorf("failed to scan daily stats: %w", err)
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}
		stats.DailyStats = append(stats.DailyStats, &DailyUsageStats{
			Date:         date,
			TotalTokens:  totalTokens,
			MessageCount: messageCount,
		})
	}

	return stats, nil
}

// calculateCost estimates the cost based on model and token count.
// This is a simplified estimation - actual costs may vary.
func calculateCost(model string, tokens int64) float64 {
	// Cost per 1M tokens, averaged over input/output
	costPer1M := 10.0
	switch model {
	case "gpt-4", "gpt-4-turbo", "gpt-4-turbo-preview":
		costPer1M = 30.0
	case "gpt-4o":
		costPer1M = 5.0
	case "gpt-4o-mini":
		costPer1M = 0.4
	case "gpt-3.5-turbo", "gpt-3.5-turbo-16k":
		costPer1M = 1.5
	}
	return (float64(tokens) / 1000000.0) * costPer1M
}
