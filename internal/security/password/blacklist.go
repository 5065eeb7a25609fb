package password

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Blacklist es un conjunto case-insensitive de palabras prohibidas, usado
// para usernames reservados y passwords comunes. Es inmutable tras crearse.
type Blacklist struct {
	words map[string]struct{}
}

// NewBlacklist crea una lista a partir de palabras sueltas.
func NewBlacklist(words ...string) *Blacklist {
	bl := &Blacklist{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		bl.add(w)
	}
	return bl
}

// LoadBlacklist lee una palabra por línea; ignora vacías y comentarios (#).
// Un path vacío da una lista vacía.
func LoadBlacklist(path string) (*Blacklist, error) {
	bl := NewBlacklist()
	if strings.TrimSpace(path) == "" {
		return bl, nil
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); !strings.HasPrefix(line, "#") {
			bl.add(line)
		}
	}
	return bl, sc.Err()
}

func (b *Blacklist) add(w string) {
	if w = normalizeWord(w); w != "" {
		b.words[w] = struct{}{}
	}
}

// Contains es seguro sobre una lista nil.
func (b *Blacklist) Contains(w string) bool {
	if b == nil {
		return false
	}
	_, ok := b.words[normalizeWord(w)]
	return ok
}

func normalizeWord(w string) string { return strings.ToLower(strings.TrimSpace(w)) }
