package store

const (
	insertMutation = `
		INSERT INTO mutations (
			id,
			type,
			entity_id,
			payload,
			created_at,
			status,
			retry_count
		) VALUES (?, ?, ?, ?, ?, ?, ?);`

	listPendingMutations = `
		SELECT
			id,
			type,
			entity_id,
			payload,
			created_at,
			status,
			retry_count
		FROM mutations
		WHERE status = 'pending' OR status = 'failed'
		ORDER BY created_at, rowid;`

	setMutationStatus = `
		UPDATE mutations
		SET status = ?
		WHERE id = ?;`

	setMutationFailed = `
		UPDATE mutations
		SET status      = 'failed',
		    retry_count = retry_count + 1
		WHERE id = ?;`

	removeMutation = `
		DELETE FROM mutations
		WHERE id = ?;`

	resetInFlightMutations = `
		UPDATE mutations
		SET status = 'pending'
		WHERE status = 'syncing';`

	purgeTerminalMutations = `
		DELETE FROM mutations
		WHERE status = 'synced';`

	countPendingMutations = `
		SELECT COUNT(*)
		FROM mutations
		WHERE status = 'pending';`

	upsertCacheEntry = `
		INSERT INTO cache (key, entity_type, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET
			entity_type = excluded.entity_type,
			data        = excluded.data,
			updated_at  = excluded.updated_at;`

	getCacheEntry = `
		SELECT key, entity_type, data, updated_at
		FROM cache
		WHERE key = ?;`

	clearCacheEntries = `
		DELETE FROM cache;`

	getMetaEntry = `
		SELECT value
		FROM meta
		WHERE key = ?;`

	upsertMetaEntry = `
		INSERT INTO meta (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET
			value = excluded.value;`

	deleteMetaEntry = `
		DELETE FROM meta
		WHERE key = ?;`
)
