package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-storefront/internal/apperr"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, name, username, is_admin, street_address, address_line_2, city, state,
	postal_code, country, phone_number`

type Repo struct{ DB postgres.DB }

func (r *Repo) Insert(ctx context.Context, name, username, hash string, isAdmin bool) (int64, error) {
	var id int64
	err := r.DB.QueryRow(ctx, `
		INSERT INTO users(name, username, password_hash, is_admin)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		name, username, hash, isAdmin,
	).Scan(&id)
	if postgres.IsUniqueViolation(err) {
		return 0, apperr.Conflict("Username already taken")
	}
	if err != nil {
		return 0, apperr.Store(err)
	}
	return id, nil
}

func (r *Repo) Credentials(ctx context.Context, username string) (Credentials, error) {
	var c Credentials
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, username, is_admin, password_hash FROM users WHERE username = $1`, username,
	).Scan(&c.ID, &c.Name, &c.Username, &c.IsAdmin, &c.Hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credentials{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return Credentials{}, apperr.Store(err)
	}
	return c, nil
}

func (r *Repo) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+profileColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, apperr.Store(err)
	}
	defer rows.Close()

	out := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, apperr.Store(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Store(err)
	}
	return out, nil
}

func (r *Repo) ByUsername(ctx context.Context, username string) (Profile, error) {
	p, err := scanProfile(r.DB.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, apperr.NotFound("User not found")
	}
	if err != nil {
		return Profile{}, apperr.Store(err)
	}
	return p, nil
}

// Patch writes only the fields set on p.
func (r *Repo) Patch(ctx context.Context, username string, p UserPatch) error {
	var sets []string
	var args []any
	for _, f := range []struct {
		col string
		v   *string
	}{
		{"name", p.Name},
		{"street_address", p.StreetAddress},
		{"address_line_2", p.AddressLine2},
		{"city", p.City},
		{"state", p.State},
		{"postal_code", p.PostalCode},
		{"country", p.Country},
		{"phone_number", p.PhoneNumber},
	} {
		if f.v == nil {
			continue
		}
		args = append(args, *f.v)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.col, len(args)))
	}
	if len(sets) == 0 {
		return apperr.Validation("No valid fields to update provided")
	}
	args = append(args, username)
	ct, err := r.DB.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE username = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return apperr.Store(err)
	}
	if ct.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.ID, &p.Name, &p.Username, &p.IsAdmin, &p.StreetAddress, &p.AddressLine2,
		&p.City, &p.State, &p.PostalCode, &p.Country, &p.PhoneNumber)
	return p, err
}
