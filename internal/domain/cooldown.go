package domain

type CooldownCategory string

const (
	CooldownCommand CooldownCategory = "command"
	CooldownButton  CooldownCategory = "button"
	CooldownHelp    CooldownCategory = "help"
)

func ParseCooldownCategory(s string) (CooldownCategory, error) {
	switch c := CooldownCategory(s); c {
	case CooldownCommand, CooldownButton, CooldownHelp:
		return c, nil
	}
	return "", ErrUnknownCategory
}
