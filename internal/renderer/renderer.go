// Package renderer turns journal API responses into markdown and prints it
// to the terminal. Values are shown exactly as the server sent them.
package renderer

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"

	"github.com/kjannette/tradejournal/internal/models"
)

//go:embed templates/*.md
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"usd":      usd,
	"optUSD":   optUSD,
	"price":    price,
	"optPrice": optPrice,
	"qty":      qty,
	"num":      num,
	"optNum":   optNum,
	"date":     date,
	"optDate":  optDate,
}).ParseFS(templateFS, "templates/*.md"))

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Sprintf("render %s: %v\n", name, err)
	}
	return buf.String()
}

func Trades(trades []models.Trade) string { return render("trades.md", trades) }
func Trade(t *models.Trade) string { return render("trade.md", t) }
func Stats(s *models.TradingStats) string { return render("stats.md", s) }
func Equity(pts []models.EquityPoint) string { return render("equity.md", pts) }
func User(u *models.User) string { return render("user.md", u) }

// Printer writes markdown to a terminal through glamour, or verbatim when
// plain is set.
type Printer struct {
	out   io.Writer
	plain bool
	tr    *glamour.TermRenderer
}

func NewPrinter(out io.Writer, plain bool) (*Printer, error) {
	p := &Printer{out: out, plain: plain}
	if plain {
		return p, nil
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err != nil {
		return nil, fmt.Errorf("terminal renderer: %w", err)
	}
	p.tr = tr
	return p, nil
}

func (p *Printer) Print(markdown string) error {
	if p.plain {
		_, err := io.WriteString(p.out, markdown)
		return err
	}
	styled, err := p.tr.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(p.out, styled)
	return err
}

// --- template helpers ---

const dash = "-"

func usd(v float64) string {
	return money.NewFromFloat(v, money.USD).Display()
}

func optUSD(v *float64) string {
	if v == nil {
		return dash
	}
	s := usd(*v)
	if *v > 0 {
		s = "+" + s
	}
	return s
}

// price keeps every significant digit the server sent, so 1.1 stays 1.1
// and 147.255 stays 147.255.
func price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optPrice(v *float64) string {
	if v == nil {
		return dash
	}
	return price(*v)
}

func qty(v float64) string {
	s := price(v)
	whole, frac, hasFrac := strings.Cut(s, ".")
	neg := strings.HasPrefix(whole, "-")
	whole = strings.TrimPrefix(whole, "-")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String()
	if hasFrac {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

func num(v float64, places int) string {
	return strconv.FormatFloat(v, 'f', places, 64)
}

func optNum(v *float64, places int) string {
	if v == nil {
		return dash
	}
	return num(*v, places)
}

func date(t time.Time) string {
	if t.IsZero() {
		return dash
	}
	return t.UTC().Format("2006-01-02 15:04")
}

func optDate(t *time.Time) string {
	if t == nil {
		return dash
	}
	return date(*t)
}
