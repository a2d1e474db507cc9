// Package goals stores savings goals and planned spending in goals.yaml.
package goals

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// FileName is the goals file at the repository root.
const FileName = "goals.yaml"

// Global goal kinds.
const (
	Investment = "investimento"
	Reserve    = "reserva"
)

// Planned item kinds.
const (
	Renovation = "obra"
	Leisure    = "lazer"
)

var (
	ErrUnknownKind    = errors.New("unknown goal kind")
	ErrNegativeAmount = errors.New("amount must not be negative")
	ErrEmptyName      = errors.New("name is required")
	ErrNotFound       = errors.New("planned item not found")
)

var hundred = decimal.NewFromInt(100)

// Global is a running savings goal.
type Global struct {
	Kind     string          `yaml:"kind"`
	Current  decimal.Decimal `yaml:"current"`
	Target   decimal.Decimal `yaml:"target"`
	Deadline *civil.Date     `yaml:"deadline,omitempty"`
}

// Progress returns Current/Target as a whole percentage, capped at 100.
func (g Global) Progress() int {
	if !g.Target.IsPositive() {
		return 0
	}
	pct := g.Current.Mul(hundred).Div(g.Target).Round(0).IntPart()
	return int(min(max(pct, 0), 100))
}

// MonthlyNeeded returns how much must be saved per month from today to reach
// the target by the deadline. It reports false when there is no deadline or
// target, or when the deadline month is not after today's month.
func (g Global) MonthlyNeeded(today civil.Date) (decimal.Decimal, bool) {
	if g.Deadline == nil || g.Target.IsZero() {
		return decimal.Zero, false
	}
	months := (g.Deadline.Year-today.Year)*12 + int(g.Deadline.Month) - int(today.Month)
	if months <= 0 {
		return decimal.Zero, false
	}
	remaining := g.Target.Sub(g.Current)
	if !remaining.IsPositive() {
		return decimal.Zero, true
	}
	return remaining.DivRound(decimal.NewFromInt(int64(months)), 2), true
}

// Item is a planned purchase.
type Item struct {
	ID     string          `yaml:"id"`
	Kind   string          `yaml:"kind"`
	Name   string          `yaml:"name"`
	Date   *civil.Date     `yaml:"date,omitempty"`
	Amount decimal.Decimal `yaml:"amount"`
	Done   bool            `yaml:"done,omitempty"`
}

// Goals is the content of goals.yaml.
type Goals struct {
	Globals []Global `yaml:"globals,omitempty"`
	Items   []Item   `yaml:"items,omitempty"`
}

// Path returns the goals file for a repository.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads goals.yaml. A missing file yields empty goals.
func Load(repoRoot string) (*Goals, error) {
	data, err := os.ReadFile(Path(repoRoot))
	if err != nil {
		if os.IsNotExist(err) {
			return &Goals{}, nil
		}
		return nil, fmt.Errorf("reading goals: %w", err)
	}
	var g Goals
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("parsing goals: %w", err)
	}
	return &g, nil
}

// Save writes goals.yaml.
func Save(repoRoot string, g *Goals) error {
	data, err := yaml.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshaling goals: %w", err)
	}
	if err := os.WriteFile(Path(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("writing goals: %w", err)
	}
	return nil
}

// Global returns the goal of the given kind.
func (g *Goals) Global(kind string) (Global, bool) {
	i := slices.IndexFunc(g.Globals, func(gl Global) bool { return gl.Kind == kind })
	if i < 0 {
		return Global{Kind: kind}, false
	}
	return g.Globals[i], true
}

// SetGlobal creates or replaces the goal of gl.Kind.
func (g *Goals) SetGlobal(gl Global) error {
	if gl.Kind != Investment && gl.Kind != Reserve {
		return fmt.Errorf("%w: %q", ErrUnknownKind, gl.Kind)
	}
	if gl.Current.IsNegative() || gl.Target.IsNegative() {
		return ErrNegativeAmount
	}
	i := slices.IndexFunc(g.Globals, func(x Global) bool { return x.Kind == gl.Kind })
	if i < 0 {
		g.Globals = append(g.Globals, gl)
		return nil
	}
	g.Globals[i] = gl
	return nil
}

// AddItem appends a planned item and returns it with its new ID.
func (g *Goals) AddItem(kind, name string, date *civil.Date, amount decimal.Decimal) (Item, error) {
	if kind != Renovation && kind != Leisure {
		return Item{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrEmptyName
	}
	if amount.IsNegative() {
		return Item{}, ErrNegativeAmount
	}
	it := Item{ID: uuid.NewString(), Kind: kind, Name: name, Date: date, Amount: amount}
	g.Items = append(g.Items, it)
	return it, nil
}

// RemoveItem deletes a planned item by ID.
func (g *Goals) RemoveItem(id string) error {
	n := len(g.Items)
	g.Items = slices.DeleteFunc(g.Items, func(it Item) bool { return it.ID == id })
	if len(g.Items) == n {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ItemsOf returns the planned items of one kind in insertion order.
func (g *Goals) ItemsOf(kind string) []Item {
	var out []Item
	for _, it := range g.Items {
		if it.Kind == kind {
			out = append(out, it)
		}
	}
	return out
}
