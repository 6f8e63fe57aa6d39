package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Variant descreve uma variante de jogo de tabuleiro suportada pela plataforma.
type Variant struct {
	Name      string `yaml:"name"`
	BoardSize int    `yaml:"board_size"`
	MoveLimit int    `yaml:"move_limit"`  // atingido o limite, a partida empata
	AIDelayMs int    `yaml:"ai_delay_ms"` // atraso da resposta do oponente IA
}

// Catalog é o conjunto de variantes carregado de um arquivo YAML.
type Catalog struct {
	Variants []Variant `yaml:"variants"`

	byName map[string]Variant
}

var ErrUnknownVariant = errors.New("unknown game variant")

// Default é o catálogo usado quando nenhum arquivo é fornecido.
func Default() *Catalog {
	c := &Catalog{Variants: []Variant{
		{Name: "gungi", BoardSize: 9, MoveLimit: 200, AIDelayMs: 750},
		{Name: "mini", BoardSize: 5, MoveLimit: 60, AIDelayMs: 300},
	}}
	c.index()
	return c
}

// LoadFile lê e valida o catálogo de variantes de um arquivo YAML.
func LoadFile(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(b)
}

// Parse desserializa e valida o catálogo.
func Parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Variants) == 0 {
		return nil, errors.New("catalog has no variants")
	}
	seen := map[string]struct{}{}
	for _, v := range c.Variants {
		if v.Name == "" {
			return nil, errors.New("variant without name")
		}
		if _, dup := seen[v.Name]; dup {
			return nil, fmt.Errorf("duplicate variant %q", v.Name)
		}
		seen[v.Name] = struct{}{}
		if v.BoardSize < 3 || v.BoardSize > 25 {
			return nil, fmt.Errorf("variant %q: board_size out of range", v.Name)
		}
		if v.MoveLimit <= 0 {
			return nil, fmt.Errorf("variant %q: move_limit must be positive", v.Name)
		}
	}
	c.index()
	return &c, nil
}

func (c *Catalog) index() {
	c.byName = make(map[string]Variant, len(c.Variants))
	for _, v := range c.Variants {
		c.byName[v.Name] = v
	}
}

// Get retorna a variante pelo nome.
func (c *Catalog) Get(name string) (Variant, error) {
	v, ok := c.byName[name]
	if !ok {
		return Variant{}, ErrUnknownVariant
	}
	return v, nil
}
