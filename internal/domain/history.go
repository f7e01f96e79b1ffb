package domain

import "time"

type HistoryKind string

const (
	HistoryJoin      HistoryKind = "join"
	HistoryLeave     HistoryKind = "leave"
	HistoryBan       HistoryKind = "ban"
	HistoryKick      HistoryKind = "kick"
	HistoryUnban     HistoryKind = "unban"
	HistoryUntimeout HistoryKind = "untimeout"
)

// HistoryKinds en el orden en que se muestran en /whois.
var HistoryKinds = []HistoryKind{
	HistoryKick, HistoryBan, HistoryUnban, HistoryUntimeout, HistoryJoin, HistoryLeave,
}

func ParseHistoryKind(s string) (HistoryKind, error) {
	for _, k := range HistoryKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", ErrUnknownHistoryKind
}

// SystemModerator es el actor que se registra cuando un timeout expira solo.
const SystemModerator = "System"

type HistoryEvent struct {
	Kind        HistoryKind
	User        UserID
	Username    string
	DisplayName string
	At          time.Time

	// Reason/Moderator aplican a ban, kick, unban y untimeout.
	Reason      string
	Moderator   string
	ModeratorID UserID

	// Roles al momento de salir (leave/kick).
	Roles []string
}

// Natural indica un untimeout que no fue quitado por una persona.
func (e HistoryEvent) Natural() bool {
	return e.Kind == HistoryUntimeout && e.Moderator == SystemModerator
}
