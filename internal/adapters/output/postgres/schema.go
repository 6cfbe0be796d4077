package postgres

import (
	"context"

	"task-wallet/internal/infrastructure/db"
)

// EnsureSchema creates the ledger tables and the two atomic procedures if
// they do not exist yet.
func EnsureSchema(ctx context.Context, q db.Querier) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS user_balances (
			user_id      TEXT PRIMARY KEY,
			available    NUMERIC(12,2) NOT NULL DEFAULT 0 CHECK (available >= 0),
			pending      NUMERIC(12,2) NOT NULL DEFAULT 0,
			total_earned NUMERIC(12,2) NOT NULL DEFAULT 0,
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			type        TEXT NOT NULL,
			amount      NUMERIC(12,2) NOT NULL,
			status      TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id, created_at DESC)`,
		`CREATE OR REPLACE FUNCTION add_task_reward(p_user_id TEXT, p_amount NUMERIC)
		RETURNS VOID AS $$
		BEGIN
			IF p_amount <= 0 THEN
				RAISE EXCEPTION 'amount must be positive';
			END IF;
			INSERT INTO user_balances (user_id, available, pending, total_earned, updated_at)
			VALUES (p_user_id, p_amount, 0, p_amount, NOW())
			ON CONFLICT (user_id) DO UPDATE
			SET available = user_balances.available + p_amount,
				total_earned = user_balances.total_earned + p_amount,
				updated_at = NOW();
			INSERT INTO transactions (id, user_id, type, amount, status, description, created_at)
			VALUES (gen_random_uuid()::text, p_user_id, 'task_reward', p_amount, 'completed', 'Task reward', NOW());
		END;
		$$ LANGUAGE plpgsql`,
		`CREATE OR REPLACE FUNCTION request_withdrawal(p_user_id TEXT, p_amount NUMERIC, p_method TEXT)
		RETURNS VOID AS $$
		DECLARE
			moved INTEGER;
		BEGIN
			IF p_amount <= 0 THEN
				RAISE EXCEPTION 'amount must be positive';
			END IF;
			UPDATE user_balances
			SET available = available - p_amount, pending = pending + p_amount, updated_at = NOW()
			WHERE user_id = p_user_id AND available >= p_amount;
			GET DIAGNOSTICS moved = ROW_COUNT;
			IF moved = 0 THEN
				RAISE EXCEPTION 'insufficient available balance';
			END IF;
			INSERT INTO transactions (id, user_id, type, amount, status, description, created_at)
			VALUES (gen_random_uuid()::text, p_user_id, 'withdrawal', p_amount, 'pending', 'Withdrawal via ' || p_method, NOW());
		END;
		$$ LANGUAGE plpgsql`,
	}

	for _, stmt := range statements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
