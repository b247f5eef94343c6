package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-tracker/internal/domain"
	apperrors "github.com/spec-kit/ticket-tracker/pkg/util"
)

var (
	ErrTicketNotFound = apperrors.NewNotFound("ticket", nil)
	ErrAgentNotFound  = apperrors.NewNotFound("agent", nil)
	ErrEmptyUpdate    = apperrors.NewValidationError("no fields to update", nil)
)

const (
	DefaultPageSize = 30
	MaxPageSize     = 100

	pgForeignKeyViolation = "23503"
)

// TicketQuery captures search parameters. Zero values select defaults.
type TicketQuery struct {
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
	Sort     domain.TicketSort
	Page     int
	PageSize int
	Offset   *int
}

// TicketPage is one window of search results.
type TicketPage struct {
	Items    []domain.Ticket
	Total    int
	Page     int
	PageSize int
}

// Window resolves the pagination values actually used by a search.
// An explicit Offset wins over Page.
func (q TicketQuery) Window() (page, pageSize, offset int) {
	page = q.Page
	if page < 1 {
		page = 1
	}
	pageSize = q.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if q.Offset != nil {
		offset = *q.Offset
		if offset < 0 {
			offset = 0
		}
		return page, pageSize, offset
	}
	if page-1 > math.MaxInt/pageSize {
		// Past any reachable row; the page is empty.
		return page, pageSize, math.MaxInt
	}
	return page, pageSize, (page - 1) * pageSize
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Search(ctx context.Context, query TicketQuery) (TicketPage, error)
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	Create(ctx context.Context, input domain.NewTicket) (*domain.Ticket, error)
	Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error)
	Delete(ctx context.Context, id string) error
}

const ticketColumns = `id, title, description, priority, status, assignee_id,
               created_at, updated_at, created_by_id, updated_by_id`

const priorityRank = `CASE priority WHEN 'Critical' THEN 4 WHEN 'High' THEN 3 WHEN 'Medium' THEN 2 WHEN 'Low' THEN 1 ELSE 0 END`

// ticketOrderBy is the only source of ORDER BY text; caller input selects a
// key and never reaches the query.
var ticketOrderBy = map[domain.TicketSort]string{
	domain.TicketSortUpdatedAsc:   "updated_at ASC, id ASC",
	domain.TicketSortUpdatedDesc:  "updated_at DESC, id ASC",
	domain.TicketSortPriorityDesc: priorityRank + " DESC, updated_at DESC, id ASC",
	domain.TicketSortPriorityAsc:  priorityRank + " ASC, updated_at DESC, id ASC",
}

func orderByClause(sort domain.TicketSort) string {
	if clause, ok := ticketOrderBy[sort]; ok {
		return clause
	}
	return ticketOrderBy[domain.DefaultTicketSort]
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

type searchStatement struct {
	count string
	list  string
	args  []any
}

func buildSearch(q TicketQuery) searchStatement {
	clauses := []string{}
	args := []any{}

	if q.Status != nil {
		args = append(args, *q.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Priority != nil {
		args = append(args, *q.Priority)
		clauses = append(clauses, fmt.Sprintf("priority = $%d", len(args)))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	_, pageSize, offset := q.Window()
	listArgs := append(append([]any{}, args...), pageSize, offset)

	return searchStatement{
		count: "SELECT COUNT(*) FROM tickets" + where,
		list: fmt.Sprintf("SELECT %s FROM tickets%s ORDER BY %s LIMIT $%d OFFSET $%d",
			ticketColumns, where, orderByClause(q.Sort), len(args)+1, len(args)+2),
		args: listArgs,
	}
}

func (r *ticketRepository) Search(ctx context.Context, q TicketQuery) (TicketPage, error) {
	stmt := buildSearch(q)
	page, pageSize, _ := q.Window()
	filterArgs := stmt.args[:len(stmt.args)-2]

	var total int64
	if err := r.pool.QueryRow(ctx, stmt.count, filterArgs...).Scan(&total); err != nil {
		return TicketPage{}, fmt.Errorf("count tickets: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt.list, stmt.args...)
	if err != nil {
		return TicketPage{}, fmt.Errorf("search tickets: %w", err)
	}
	defer rows.Close()

	items, err := scanTickets(rows)
	if err != nil {
		return TicketPage{}, fmt.Errorf("scan tickets: %w", err)
	}
	return TicketPage{Items: items, Total: int(total), Page: page, PageSize: pageSize}, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTicketNotFound
	}
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	return ticket, err
}

func (r *ticketRepository) Create(ctx context.Context, input domain.NewTicket) (*domain.Ticket, error) {
	status := input.Status
	if status == "" {
		status = domain.TicketStatusOpen
	}
	query := `
        INSERT INTO tickets (id, title, description, priority, status, assignee_id, created_by_id, updated_by_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$7)
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query,
		uuid.NewString(),
		input.Title,
		input.Description,
		input.Priority,
		status,
		input.AssigneeID,
		input.CreatedByID,
	))
	if err != nil {
		return nil, translateWriteError(err)
	}
	return ticket, nil
}

// buildUpdate renders an UPDATE touching only the fields present in patch.
func buildUpdate(id string, patch domain.TicketPatch) (string, []any, error) {
	if patch.Empty() {
		return "", nil, ErrEmptyUpdate
	}
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if v, ok := patch.Title.Get(); ok {
		set("title", v)
	}
	if v, ok := patch.Description.Get(); ok {
		set("description", v)
	}
	if v, ok := patch.Priority.Get(); ok {
		set("priority", v)
	}
	if v, ok := patch.Status.Get(); ok {
		set("status", v)
	}
	if patch.AssigneeID.Present() {
		set("assignee_id", patch.AssigneeID.Ptr())
	}
	set("updated_by_id", patch.UpdatedByID)
	sets = append(sets, "updated_at=NOW()")

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d RETURNING %s",
		strings.Join(sets, ", "), len(args), ticketColumns)
	return query, args, nil
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	query, args, err := buildUpdate(id, patch)
	if err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTicketNotFound
	}
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTicketNotFound
	}
	if err != nil {
		return nil, translateWriteError(err)
	}
	return ticket, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	if _, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id); err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	return nil
}

func translateWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return ErrAgentNotFound
	}
	return err
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssigneeID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.CreatedByID,
		&ticket.UpdatedByID,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
