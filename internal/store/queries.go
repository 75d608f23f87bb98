package store

// Credentials queries
const (
	queryGetCredentials = `
		SELECT base_url, tokens, created_at, updated_at
		FROM credentials WHERE id = 1`

	queryUpsertCredentials = `
		INSERT INTO credentials (id, base_url, tokens, updated_at)
		VALUES (1, ?, ?, now())
		ON CONFLICT (id) DO UPDATE SET
			base_url = EXCLUDED.base_url,
			tokens = EXCLUDED.tokens,
			updated_at = now()`

	queryDeleteCredentials = `DELETE FROM credentials WHERE id = 1`
)

// Collection run queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, period_start, period_end, state, total_tasks, completed_tasks)
		VALUES (?, ?, ?, ?, ?, ?)`

	queryUpdateRunProgress = `
		UPDATE runs SET completed_tasks = ?, total_tasks = ? WHERE id = ?`

	queryFinishRun = `
		UPDATE runs SET state = ?, error = ?, finished_at = now() WHERE id = ?`

	queryGetRun = `
		SELECT id, period_start, period_end, state, total_tasks, completed_tasks, error, started_at, finished_at
		FROM runs WHERE id = ?`

	queryLatestRun = `
		SELECT id, period_start, period_end, state, total_tasks, completed_tasks, error, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT 1`
)

// Result archive queries
const (
	queryUpsertResult = `
		INSERT INTO results (sheet_ref, vehicle_id, run_id, vehicle_name, reg_number, window_start, window_end, summary, collected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, now())
		ON CONFLICT (sheet_ref, vehicle_id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			vehicle_name = EXCLUDED.vehicle_name,
			reg_number = EXCLUDED.reg_number,
			window_start = EXCLUDED.window_start,
			window_end = EXCLUDED.window_end,
			summary = EXCLUDED.summary,
			collected_at = now()`

	queryResultsByRun = `
		SELECT run_id, sheet_ref, vehicle_id, vehicle_name, reg_number, window_start, window_end, summary, collected_at
		FROM results WHERE run_id = ?
		ORDER BY sheet_ref, vehicle_id`

	queryResultsByPeriod = `
		SELECT run_id, sheet_ref, vehicle_id, vehicle_name, reg_number, window_start, window_end, summary, collected_at
		FROM results WHERE window_start < ? AND window_end > ?
		ORDER BY sheet_ref, vehicle_id`
)

// Shift cache queries
const (
	queryGetShiftCache = `
		SELECT summary FROM shift_cache
		WHERE vehicle_id = ? AND shift_key = ?`

	queryUpsertShiftCache = `
		INSERT INTO shift_cache (vehicle_id, shift_key, summary, fetched_at)
		VALUES (?, ?, ?, now())
		ON CONFLICT (vehicle_id, shift_key) DO UPDATE SET
			summary = EXCLUDED.summary,
			fetched_at = now()`

	queryPurgeShiftCache = `DELETE FROM shift_cache WHERE fetched_at < ?`
)
