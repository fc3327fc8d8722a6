package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrConflict: a linha existe mas não estava no estado esperado pela
	// transição (update condicional não casou) — retry seguro sob corrida.
	ErrConflict = errors.New("bet not in expected status")
)

// Postgres implementa a persistência do ledger de apostas
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de apostas
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const betColumns = `id, title, amount, option_a, option_b, creator_id, creator_choice,
	status, COALESCE(winner_option, ''), created_at, concluded_at, COALESCE(concluded_by_id, ''), couple_id`

func scanBet(row interface{ Scan(...any) error }) (*Bet, error) {
	var b Bet
	err := row.Scan(&b.ID, &b.Title, &b.Amount, &b.OptionA, &b.OptionB, &b.CreatorID, &b.CreatorChoice,
		&b.Status, &b.WinnerOption, &b.CreatedAt, &b.ConcludedAt, &b.ConcludedByID, &b.CoupleID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Insert grava uma aposta nova com o status decidido pela política de criação
func (p *Postgres) Insert(ctx context.Context, b *Bet) (*Bet, error) {
	return scanBet(p.db.QueryRowContext(ctx, `
		INSERT INTO bets (id, title, amount, option_a, option_b, creator_id, creator_choice, status, couple_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
		RETURNING `+betColumns,
		uuid.NewString(), b.Title, b.Amount, b.OptionA, b.OptionB, b.CreatorID, b.CreatorChoice, b.Status, b.CoupleID))
}

// ByID busca uma aposta pelo id
func (p *Postgres) ByID(ctx context.Context, id string) (*Bet, error) {
	return scanBet(p.db.QueryRowContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE id=$1`, id))
}

// ListByCouple lista as apostas do casal, opcionalmente filtradas por status.
// Concluídas saem por concluded_at desc (tela de histórico); o resto por
// created_at desc.
func (p *Postgres) ListByCouple(ctx context.Context, coupleID, status string) ([]Bet, error) {
	q := `SELECT ` + betColumns + ` FROM bets WHERE couple_id=$1`
	args := []any{coupleID}
	if status != "" {
		q += ` AND status=$2`
		args = append(args, status)
	}
	if status == StatusConcluded {
		q += ` ORDER BY concluded_at DESC`
	} else {
		q += ` ORDER BY created_at DESC`
	}

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// ListConcludedAsc lista as concluídas em ordem cronológica de conclusão,
// insumo do fold de estatísticas (a sequência define os streaks).
func (p *Postgres) ListConcludedAsc(ctx context.Context, coupleID string) ([]Bet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+betColumns+` FROM bets
		WHERE couple_id=$1 AND status=$2
		ORDER BY concluded_at ASC`, coupleID, StatusConcluded)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

// Approve promove pending -> active. Update condicional: só transiciona se o
// status atual for o esperado; duplo submit não reaplica nada.
func (p *Postgres) Approve(ctx context.Context, id string) (*Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		UPDATE bets SET status=$1 WHERE id=$2 AND status=$3
		RETURNING `+betColumns, StatusActive, id, StatusPending))
	if errors.Is(err, ErrNotFound) {
		return nil, p.conflictOrMissing(ctx, id)
	}
	return b, err
}

// Conclude fecha active -> concluded registrando a opção vencedora, quando e
// por quem. Condicional pelo mesmo motivo do Approve: concluir duas vezes não
// pode contar estatística em dobro.
func (p *Postgres) Conclude(ctx context.Context, id, winnerOption, byUserID string) (*Bet, error) {
	b, err := scanBet(p.db.QueryRowContext(ctx, `
		UPDATE bets SET status=$1, winner_option=$2, concluded_at=NOW(), concluded_by_id=$3
		WHERE id=$4 AND status=$5
		RETURNING `+betColumns, StatusConcluded, winnerOption, byUserID, id, StatusActive))
	if errors.Is(err, ErrNotFound) {
		return nil, p.conflictOrMissing(ctx, id)
	}
	return b, err
}

// DeleteByCreator apaga a aposta. O filtro por creator_id e status na própria
// query é redundante com a checagem da camada de serviço de propósito
// (defesa em profundidade: as duas precisam casar pro delete acontecer).
func (p *Postgres) DeleteByCreator(ctx context.Context, id, creatorID string) error {
	res, err := p.db.ExecContext(ctx, `
		DELETE FROM bets
		WHERE id=$1 AND creator_id=$2 AND status IN ($3, $4)`,
		id, creatorID, StatusPending, StatusActive)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return p.conflictOrMissing(ctx, id)
	}
	return nil
}

// conflictOrMissing separa "linha não existe" de "linha existe em outro estado"
func (p *Postgres) conflictOrMissing(ctx context.Context, id string) error {
	var status string
	err := p.db.QueryRowContext(ctx, `SELECT status FROM bets WHERE id=$1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

func collect(rows *sql.Rows) ([]Bet, error) {
	var out []Bet
	for rows.Next() {
		var b Bet
		if err := rows.Scan(&b.ID, &b.Title, &b.Amount, &b.OptionA, &b.OptionB, &b.CreatorID, &b.CreatorChoice,
			&b.Status, &b.WinnerOption, &b.CreatedAt, &b.ConcludedAt, &b.ConcludedByID, &b.CoupleID); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
