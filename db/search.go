package db

import "fmt"

// SearchResult represents a search result
type SearchResult struct {
	Message  *IndexedMessage
	ThreadID string
	Snippet  string
}

// SearchMessages performs full-text search across all indexed messages
func (db *DB) SearchMessages(query string, limit int) ([]*SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT m.id, m.thread_id, m.role, m.content, m.model, m.tokens_used, m.created_at,
		       snippet(messages_fts, 0, '<mark>', '</mark>', '...', 32) as snippet
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.id
		WHERE messages_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var msg IndexedMessage
		var snippet string
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.Model, &msg.TokensUsed, &msg.CreatedAt, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &SearchResult{
			Message:  &msg,
			ThreadID: msg.ThreadID,
			Snippet:  snippet,
		})
	}

	return results, nil
}

// SearchThread performs full-text search limited to one thread
func (db *DB) SearchThread(threadID, query string, limit int) ([]*SearchResult, error) {
	rows, err := db.conn.Query(`
		SELECT m.id, m.thread_id, m.role, m.content, m.model, m.tokens_used, m.created_at,
		       snippet(messages_fts, 0, '<mark>', '</mark>', '...', 32) as snippet
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.id
		WHERE messages_fts MATCH ? AND m.thread_id = ?
		ORDER BY rank
		LIMIT ?
	`, query, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search thread: %w", err)
	}
	defer rows.Close()

	var results []*SearchResult
	for rows.Next() {
		var msg IndexedMessage
		var snippet string
		if err := rows.Scan(&msg.ID, &msg.ThreadID, &msg.Role, &msg.Content, &msg.Model, &msg.TokensUsed, &msg.CreatedAt, &snippet); err != nil {
			return nil, fmt.Errorf("failed to scan search result: %w", err)
		}
		results = append(results, &SearchResult{
			Message:  &msg,
			ThreadID: msg.ThreadID,
			Snippet:  snippet,
		})
	}

	return results, nil
}
