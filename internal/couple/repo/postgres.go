package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrCoupleFull = errors.New("couple already has two paired members")
)

// Postgres implementa a persistência de casais e usuários
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de casais
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

const userColumns = `id, name, couple_id, COALESCE(partner_id, ''), is_paired, COALESCE(auth_token, ''), created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.CoupleID, &u.PartnerID, &u.IsPaired, &u.AuthToken, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CoupleByCode busca um casal pelo código compartilhável (match exato)
func (p *Postgres) CoupleByCode(ctx context.Context, code string) (*Couple, error) {
	return p.coupleWhere(ctx, `couple_code=$1`, code)
}

// CoupleByID busca um casal pelo id
func (p *Postgres) CoupleByID(ctx context.Context, id string) (*Couple, error) {
	return p.coupleWhere(ctx, `id=$1`, id)
}

func (p *Postgres) coupleWhere(ctx context.Context, where string, arg any) (*Couple, error) {
	var c Couple
	err := p.db.QueryRowContext(ctx,
		`SELECT id, couple_code, created_at, COALESCE(created_by_user_id, '') FROM couples WHERE `+where,
		arg,
	).Scan(&c.ID, &c.CoupleCode, &c.CreatedAt, &c.CreatedByUserID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountPaired conta os membros com is_paired=true de um casal
func (p *Postgres) CountPaired(ctx context.Context, coupleID string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE couple_id=$1 AND is_paired=TRUE`, coupleID,
	).Scan(&n)
	return n, err
}

// UserByToken resolve o token de sessão para o usuário dono dele
func (p *Postgres) UserByToken(ctx context.Context, authToken string) (*User, error) {
	return scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE auth_token=$1`, authToken))
}

// UserByCoupleAndToken busca o usuário dono do token dentro de um casal específico
// (usado pela checagem de rejoin)
func (p *Postgres) UserByCoupleAndToken(ctx context.Context, coupleID, authToken string) (*User, error) {
	return scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE couple_id=$1 AND auth_token=$2`, coupleID, authToken))
}

// UserByID busca um usuário pelo id
func (p *Postgres) UserByID(ctx context.Context, id string) (*User, error) {
	return scanUser(p.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// CreateCouple insere um casal novo com o código informado
func (p *Postgres) CreateCouple(ctx context.Context, code string) (*Couple, error) {
	var c Couple
	err := p.db.QueryRowContext(ctx, `
		INSERT INTO couples (id, couple_code, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, couple_code, created_at`,
		uuid.NewString(), code,
	).Scan(&c.ID, &c.CoupleCode, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SetCoupleOwner registra o criador do casal (segunda escrita do fluxo de criação)
func (p *Postgres) SetCoupleOwner(ctx context.Context, coupleID, userID string) error {
	_, err := p.db.ExecContext(ctx,
		`UPDATE couples SET created_by_user_id=$1 WHERE id=$2`, userID, coupleID)
	return err
}

// CreateUser insere um usuário ainda não pareado no casal
func (p *Postgres) CreateUser(ctx context.Context, coupleID, name, authToken string) (*User, error) {
	return scanUser(p.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, couple_id, is_paired, auth_token, created_at)
		VALUES ($1, $2, $3, FALSE, $4, NOW())
		RETURNING `+userColumns,
		uuid.NewString(), name, coupleID, authToken))
}

// UpdateUserName atualiza o nome de exibição
func (p *Postgres) UpdateUserName(ctx context.Context, userID, name string) error {
	res, err := p.db.ExecContext(ctx, `UPDATE users SET name=$1 WHERE id=$2`, name, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Pair vincula o joiner ao outro membro do casal numa única transação.
// As duas linhas são travadas FOR UPDATE em ordem de id (evita deadlock) e a
// capacidade é reconferida sob o lock: dois joiners simultâneos não conseguem
// ocupar a mesma vaga.
func (p *Postgres) Pair(ctx context.Context, coupleID, joinerID string) (joiner, partner *User, err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var partnerID string
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM users
		WHERE couple_id=$1 AND id<>$2
		ORDER BY created_at ASC
		LIMIT 1`, coupleID, joinerID).Scan(&partnerID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	if err = lockPair(ctx, tx, joinerID, partnerID); err != nil {
		return nil, nil, err
	}

	// capacidade sob o lock: ninguém além dos dois pode estar pareado
	var others int
	if err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM users
		WHERE couple_id=$1 AND is_paired=TRUE AND id NOT IN ($2, $3)`,
		coupleID, joinerID, partnerID).Scan(&others); err != nil {
		return nil, nil, err
	}
	if others > 0 {
		return nil, nil, ErrCoupleFull
	}

	if joiner, err = pairOne(ctx, tx, joinerID, partnerID); err != nil {
		return nil, nil, err
	}
	if partner, err = pairOne(ctx, tx, partnerID, joinerID); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}
	return joiner, partner, nil
}

// RestorePair refaz o vínculo mútuo entre dois usuários (usado pelo reparo)
func (p *Postgres) RestorePair(ctx context.Context, aID, bID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = lockPair(ctx, tx, aID, bID); err != nil {
		return err
	}
	if _, err = pairOne(ctx, tx, aID, bID); err != nil {
		return err
	}
	if _, err = pairOne(ctx, tx, bID, aID); err != nil {
		return err
	}
	return tx.Commit()
}

// Unpair desfaz o pareamento do usuário e do parceiro simetricamente.
// Idempotente: chamar para um usuário já desvinculado é um no-op.
func (p *Postgres) Unpair(ctx context.Context, userID string) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var partnerID sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT partner_id FROM users WHERE id=$1 FOR UPDATE`, userID).Scan(&partnerID)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users SET is_paired=FALSE, partner_id=NULL WHERE id=$1`, userID); err != nil {
		return err
	}
	if partnerID.Valid && partnerID.String != "" {
		if _, err = tx.ExecContext(ctx,
			`UPDATE users SET is_paired=FALSE, partner_id=NULL WHERE id=$1`, partnerID.String); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindHalfPaired lista usuários marcados como pareados cujo vínculo não fecha:
// partner_id nulo, parceiro inexistente, parceiro despareado ou apontando pra
// outra pessoa. Insumo do pairing-repair-worker.
func (p *Postgres) FindHalfPaired(ctx context.Context) ([]PairAnomaly, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.couple_id, COALESCE(u.partner_id, ''), u.is_paired, COALESCE(u.auth_token, ''), u.created_at,
		       p.id, p.name, p.couple_id, COALESCE(p.partner_id, ''), p.is_paired, COALESCE(p.auth_token, ''), p.created_at
		FROM users u
		LEFT JOIN users p ON p.id = u.partner_id
		WHERE u.is_paired = TRUE
		  AND (u.partner_id IS NULL OR p.id IS NULL OR p.is_paired = FALSE OR p.partner_id IS DISTINCT FROM u.id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PairAnomaly
	for rows.Next() {
		var a PairAnomaly
		var pr partnerRow
		if err := rows.Scan(
			&a.User.ID, &a.User.Name, &a.User.CoupleID, &a.User.PartnerID, &a.User.IsPaired, &a.User.AuthToken, &a.User.CreatedAt,
			&pr.id, &pr.name, &pr.coupleID, &pr.partnerID, &pr.isPaired, &pr.authToken, &pr.createdAt,
		); err != nil {
			return nil, err
		}
		a.Partner = pr.user()
		out = append(out, a)
	}
	return out, rows.Err()
}

type partnerRow struct {
	id, name, coupleID, partnerID, authToken sql.NullString
	isPaired                                 sql.NullBool
	createdAt                                sql.NullTime
}

func (r partnerRow) user() *User {
	if !r.id.Valid {
		return nil
	}
	return &User{
		ID:        r.id.String,
		Name:      r.name.String,
		CoupleID:  r.coupleID.String,
		PartnerID: r.partnerID.String,
		IsPaired:  r.isPaired.Bool,
		AuthToken: r.authToken.String,
		CreatedAt: r.createdAt.Time,
	}
}

// lockPair trava as duas linhas em ordem de id pra evitar deadlock entre
// transações concorrentes tocando o mesmo par
func lockPair(ctx context.Context, tx *sql.Tx, aID, bID string) error {
	first, second := aID, bID
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		var dummy string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM users WHERE id=$1 FOR UPDATE`, id).Scan(&dummy); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

func pairOne(ctx context.Context, tx *sql.Tx, userID, partnerID string) (*User, error) {
	return scanUser(tx.QueryRowContext(ctx, `
		UPDATE users SET is_paired=TRUE, partner_id=$1 WHERE id=$2
		RETURNING `+userColumns, partnerID, userID))
}
