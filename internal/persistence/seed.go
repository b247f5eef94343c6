package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	"github.com/spec-kit/ticket-tracker/internal/repository"
)

type seedTicket struct {
	title       string
	description string
	priority    string
	status      string
}

var demoTickets = []seedTicket{
	{"Cannot login", "User cannot login", "High", "Open"},
	{"Billing issue", "Charge discrepancy", "Medium", "InProgress"},
	{"Feature request", "Add dark mode", "Low", "Open"},
}

const demoTicketRounds = 10

// DemoAgents returns the demo directory with fresh ids. The first agent is
// the admin that owns seeded tickets.
func DemoAgents() []domain.Agent {
	return []domain.Agent{
		{ID: uuid.NewString(), Name: "Admin", Email: "admin@example.com"},
		{ID: uuid.NewString(), Name: "Yaniv", Email: "yaniv@example.com"},
		{ID: uuid.NewString(), Name: "John", Email: "john@example.com"},
	}
}

// SeedDemoData inserts three agents and a batch of tickets when the agents
// table is empty. It runs in a single transaction.
func SeedDemoData(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		return nil
	}

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM agents`).Scan(&count); err != nil {
			return fmt.Errorf("count agents: %w", err)
		}
		if count > 0 {
			logger.Info("agents present; skipping demo seed", zap.Int64("agents", count))
			return nil
		}

		agents := DemoAgents()
		adminID := agents[0].ID
		for _, a := range agents {
			if _, err := tx.Exec(ctx, `INSERT INTO agents (id, name, email) VALUES ($1,$2,$3)`, a.ID, a.Name, a.Email); err != nil {
				return fmt.Errorf("insert agent %s: %w", a.Email, err)
			}
		}

		batch := &pgx.Batch{}
		for i := 0; i < demoTicketRounds; i++ {
			for _, t := range demoTickets {
				batch.Queue(`
                    INSERT INTO tickets (id, title, description, priority, status, assignee_id, created_by_id, updated_by_id)
                    VALUES ($1,$2,$3,$4,$5,$6,$7,$7)`,
					uuid.NewString(), t.title, t.description, t.priority, t.status, adminID, adminID)
			}
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert demo tickets: %w", err)
		}

		logger.Info("demo data seeded", zap.Int("agents", len(agents)), zap.Int("tickets", batch.Len()))
		return nil
	})
}

// SeedMemoryTickets fills an in-memory store with the same demo tickets,
// all assigned to and created by ownerID.
func SeedMemoryTickets(ctx context.Context, tickets repository.TicketRepository, ownerID string) (int, error) {
	created := 0
	for i := 0; i < demoTicketRounds; i++ {
		for _, t := range demoTickets {
			priority, _ := domain.ParseTicketPriority(t.priority)
			status, _ := domain.ParseTicketStatus(t.status)
			owner := ownerID
			if _, err := tickets.Create(ctx, domain.NewTicket{
				Title:       t.title,
				Description: t.description,
				Priority:    priority,
				Status:      status,
				AssigneeID:  &owner,
				CreatedByID: ownerID,
			}); err != nil {
				return created, fmt.Errorf("seed ticket: %w", err)
			}
			created++
		}
	}
	return created, nil
}
