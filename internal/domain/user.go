package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// UserID es el snowflake de Discord como entero. 0 nunca es válido.
type UserID uint64

func ParseUserID(raw string) (UserID, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidUser, raw)
	}
	return UserID(n), nil
}

func (u UserID) String() string { return strconv.FormatUint(uint64(u), 10) }

// Mention devuelve <@id> para mensajes de Discord.
func (u UserID) Mention() string { return "<@" + u.String() + ">" }

// Valid: la capa de eventos a veces entrega ids vacíos.
func (u UserID) Valid() bool { return u != 0 }

// UserSet es un conjunto de usuarios; el valor nil es un set vacío válido.
type UserSet map[UserID]struct{}

func NewUserSet(ids ...UserID) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UserSet) Has(id UserID) bool {
	_, ok := s[id]
	return ok
}
