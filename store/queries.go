package store

const (
	queryDeferJob = `SELECT procrastinate_defer_job($1, $2, $3, $4, $5)`

	queryFetchJob = `SELECT * FROM procrastinate_fetch_job($1, $2)`

	queryFinishJob = `SELECT procrastinate_finish_job($1, $2)`

	queryRetryJob = `SELECT procrastinate_retry_job($1, $2)`

	queryHeartbeat = `
		UPDATE procrastinate_jobs SET heartbeat_at = now()
		WHERE id = $1 AND locked_by = $2 AND status = 'doing'`

	queryCancel = `
		UPDATE procrastinate_jobs SET status = 'failed'
		WHERE id = $1 AND status = 'todo'`

	queryListJobs = `
		SELECT id, queue_name, task_name, args, status, scheduled_at, queueing_lock, attempts, locked_by, heartbeat_at
		FROM procrastinate_jobs
		WHERE ($1::text = '' OR queue_name = $1)
			AND ($2::text = '' OR status = $2)
		ORDER BY id`

	queryDeleteOldJobs = `
		DELETE FROM procrastinate_jobs
		WHERE id IN (
			SELECT pe.job_id FROM procrastinate_events pe
			WHERE pe.type IN ('succeeded', 'failed')
				AND pe.at < now() - $1::interval
			LIMIT 10000
		)`

	queryDeferPeriodicSlot = `
		INSERT INTO procrastinate_periodic_defers (task_name, defer_timestamp)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING task_name`

	queryAttachPeriodicJob = `
		UPDATE procrastinate_periodic_defers SET job_id = $3
		WHERE task_name = $1 AND defer_timestamp = $2`

	queryReapStranded = `
		UPDATE procrastinate_jobs SET
			status = 'todo',
			locked_by = NULL,
			heartbeat_at = NULL
		WHERE id IN (
			SELECT id FROM procrastinate_jobs
			WHERE status = 'doing' AND heartbeat_at < $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id`

	queryInsertEvent = `INSERT INTO procrastinate_events (job_id, type) VALUES ($1, $2)`
)
