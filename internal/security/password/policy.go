package password

import (
	"strings"
	"unicode"
)

// Policy son los requisitos de un password fijado por un admin.
// MaxLength acota el costo de argon2 (0 = sin tope).
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireLetter bool
	RequireDigit  bool
}

// Validate retorna los códigos incumplidos. personal son valores del
// usuario (email, username) que el password no puede contener.
func (p Policy) Validate(s string, personal ...string) (ok bool, reasons []string) {
	n := len([]rune(s))
	if n < p.MinLength {
		reasons = append(reasons, "too_short")
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		reasons = append(reasons, "too_long")
	}
	if p.RequireLetter && strings.IndexFunc(s, unicode.IsLetter) < 0 {
		reasons = append(reasons, "missing_letter")
	}
	if p.RequireDigit && strings.IndexFunc(s, unicode.IsDigit) < 0 {
		reasons = append(reasons, "missing_digit")
	}
	lower := strings.ToLower(s)
	for _, v := range personal {
		v = strings.ToLower(strings.TrimSpace(v))
		if at := strings.IndexByte(v, '@'); at > 0 {
			v = v[:at]
		}
		if len(v) >= 3 && strings.Contains(lower, v) {
			reasons = append(reasons, "too_similar")
			break
		}
	}
	return len(reasons) == 0, reasons
}
