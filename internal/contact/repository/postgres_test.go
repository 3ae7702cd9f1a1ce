package repository

import (
	"testing"

	"github.com/folio-labs/portfolio-api/internal/contact"
	"github.com/stretchr/testify/require"
)

func TestPgListQuery(t *testing.T) {
	q, args, err := pgListQuery(contact.ListFilter{}, NewestFirst, 0, 10)
	require.NoError(t, err)
	require.Equal(t, `SELECT `+pgColumns+` FROM contact_submissions ORDER BY created_at DESC, id DESC LIMIT $1`, q)
	require.Equal(t, []any{10}, args)

	read := true
	q, args, err = pgListQuery(contact.ListFilter{IsRead: &read}, NewestFirst, 20, 10)
	require.NoError(t, err)
	require.Equal(t, `SELECT `+pgColumns+` FROM contact_submissions WHERE is_read = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`, q)
	require.Equal(t, []any{true, 10, 20}, args)

	_, _, err = pgListQuery(contact.ListFilter{}, Sort{Field: "name"}, 0, 0)
	require.ErrorIs(t, err, ErrUnsupportedField)
}

func TestPgWhereWithoutFilter(t *testing.T) {
	where, args := pgWhere(contact.ListFilter{})
	require.Empty(t, where)
	require.Empty(t, args)
}
