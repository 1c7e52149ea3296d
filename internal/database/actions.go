package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/cricket-auction/internal/cache"
)

// ActionStore persists the auction action log.
type ActionStore struct {
	pool *pgxpool.Pool
}

func NewActionStore(pool *pgxpool.Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// InsertActions writes a batch of records in one transaction, upserting each room row and
// closing it out when a game_over record arrives.
func (s *ActionStore) InsertActions(ctx context.Context, records []cache.AuctionActionRecord) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range records {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s#%d: %w", rec.RoomCode, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.AuctionActionRecord) error {
	upsertRoomQ := `
		INSERT INTO auction_rooms (code, status, start_time)
		VALUES ($1, 'in_progress', NOW())
		ON CONFLICT (code)
		DO UPDATE SET status = 'in_progress'
		WHERE auction_rooms.status <> 'completed'
	`
	if _, err := tx.Exec(ctx, upsertRoomQ, rec.RoomCode); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	actionInsertQ := `
		INSERT INTO auction_actions (
			room_code, action_index, actor_id, action_type, action_payload, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, actionInsertQ,
		rec.RoomCode, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, time.UnixMilli(rec.Timestamp),
	)
	if err != nil {
		return err
	}

	if rec.ActionType == "game_over" {
		finalizeQ := `
			UPDATE auction_rooms
			SET status = 'completed', end_time = NOW()
			WHERE code = $1 AND status = 'in_progress'
		`
		if _, err := tx.Exec(ctx, finalizeQ, rec.RoomCode); err != nil {
			return err
		}
	}
	return nil
}

// MarkRoomAbandoned closes out a room that stopped producing actions before finishing.
func (s *ActionStore) MarkRoomAbandoned(ctx context.Context, code string) error {
	q := `
		UPDATE auction_rooms
		SET status = 'abandoned', end_time = NOW()
		WHERE code = $1 AND status = 'in_progress'
	`
	_, err := s.pool.Exec(ctx, q, code)
	return err
}
