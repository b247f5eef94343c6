package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-tracker/internal/domain"
)

// AgentRepository is the read-only agent directory.
type AgentRepository interface {
	List(ctx context.Context) ([]domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	GetByEmail(ctx context.Context, email string) (*domain.Agent, error)
}

type agentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(pool *pgxpool.Pool) AgentRepository {
	return &agentRepository{pool: pool}
}

func (r *agentRepository) List(ctx context.Context) ([]domain.Agent, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, email FROM agents ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Agent{}
	for rows.Next() {
		var agent domain.Agent
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Email); err != nil {
			return nil, err
		}
		result = append(result, agent)
	}
	return result, rows.Err()
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrAgentNotFound
	}
	return r.fetchSingle(ctx, `SELECT id, name, email FROM agents WHERE id=$1`, id)
}

func (r *agentRepository) GetByEmail(ctx context.Context, email string) (*domain.Agent, error) {
	return r.fetchSingle(ctx, `SELECT id, name, email FROM agents WHERE LOWER(email)=LOWER($1)`, email)
}

func (r *agentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.pool.QueryRow(ctx, query, arg).Scan(&agent.ID, &agent.Name, &agent.Email); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAgentNotFound
		}
		return nil, err
	}
	return &agent, nil
}

type memoryAgentRepository struct {
	mu     sync.RWMutex
	agents map[string]domain.Agent
}

// NewMemoryAgentRepository returns a directory preloaded with agents.
func NewMemoryAgentRepository(agents ...domain.Agent) AgentRepository {
	r := &memoryAgentRepository{agents: make(map[string]domain.Agent, len(agents))}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *memoryAgentRepository) List(_ context.Context) ([]domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *memoryAgentRepository) GetByID(_ context.Context, id string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return &a, nil
}

func (r *memoryAgentRepository) GetByEmail(_ context.Context, email string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.agents {
		if strings.EqualFold(a.Email, email) {
			found := a
			return &found, nil
		}
	}
	return nil, ErrAgentNotFound
}
