package postgres

// schemaQueries is the canonical schema in PostgreSQL dialect. The SQLite
// variant is derived by swapping TIMESTAMPTZ for TIMESTAMP; everything else
// (partial indexes included) is accepted by both engines. Identifiers are
// UUID strings and money columns are two-decimal DECIMALs; both travel
// through the drivers as text.
var schemaQueries = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_date DATE,
		end_date DATE,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS trip_members (
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		role TEXT NOT NULL,
		joined_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (trip_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS trip_invites (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		inviter_id TEXT NOT NULL REFERENCES users(id),
		invitee_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		responded_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS expenses (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		paid_by TEXT NOT NULL REFERENCES users(id),
		title TEXT NOT NULL,
		amount DECIMAL(12,2) NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		tax DECIMAL(12,2) NOT NULL,
		tip DECIMAL(12,2) NOT NULL,
		total DECIMAL(12,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS expense_items (
		id TEXT PRIMARY KEY,
		expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		position INTEGER NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS expense_item_assignments (
		item_id TEXT NOT NULL REFERENCES expense_items(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		PRIMARY KEY (item_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS expense_splits (
		expense_id TEXT NOT NULL REFERENCES expenses(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id),
		share DECIMAL(12,2) NOT NULL,
		PRIMARY KEY (expense_id, user_id)
	)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		trip_id TEXT NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		from_user_id TEXT NOT NULL REFERENCES users(id),
		to_user_id TEXT NOT NULL REFERENCES users(id),
		amount DECIMAL(12,2) NOT NULL,
		method TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		decline_note TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS friends (
		user_id TEXT NOT NULL REFERENCES users(id),
		friend_id TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (user_id, friend_id)
	)`,

	`CREATE TABLE IF NOT EXISTS friend_invites (
		id TEXT PRIMARY KEY,
		sender_id TEXT NOT NULL REFERENCES users(id),
		receiver_id TEXT NOT NULL REFERENCES users(id),
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		responded_at TIMESTAMPTZ
	)`,

	// At most one live invite per (trip, invitee) and per (sender, receiver).
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_trip_invites_pending
		ON trip_invites(trip_id, invitee_id) WHERE status = 'pending'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_friend_invites_pending
		ON friend_invites(sender_id, receiver_id) WHERE status = 'pending'`,

	`CREATE INDEX IF NOT EXISTS idx_trip_members_user ON trip_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_invites_invitee ON trip_invites(invitee_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_trip ON expenses(trip_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_items_expense ON expense_items(expense_id)`,
	`CREATE INDEX IF NOT EXISTS idx_expense_splits_user ON expense_splits(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_trip ON payments(trip_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_receiver ON payments(to_user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_friend_invites_receiver ON friend_invites(receiver_id, status)`,
}
