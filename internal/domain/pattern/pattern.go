// Package pattern expande patrones compactos de códigos de ubicación, tipo
// SEC{01-03}-AIS{01-10}-RK{01-05}-LV{01-04}-BIN{01-30}, en el producto
// cartesiano de todos los rangos. La expansión es determinista: orden
// lexicográfico anidado según el orden declarado de los tokens.
package pattern

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jhoicas/wms-api/internal/domain"
)

// Segment es un token del patrón: un literal fijo o un prefijo con rango numérico
// de ancho fijo (los límites deben venir zero-padded al mismo ancho).
type Segment struct {
	Prefix string
	Lo     int
	Hi     int
	Width  int  // ancho de padding de los números generados
	Range  bool // false = literal puro (Prefix sin rango)
}

// Cardinality devuelve cuántos valores produce el segmento.
func (s Segment) Cardinality() int64 {
	if !s.Range {
		return 1
	}
	return int64(s.Hi - s.Lo + 1)
}

// ValidationError describe por qué un patrón es inválido. Se reporta el primer
// token ofensivo; ninguna inserción ocurre si el patrón no parsea completo.
type ValidationError struct {
	Segment string // token ofensivo tal como aparece en el patrón ("" si aplica al patrón entero)
	Pos     int    // posición del token (base 0)
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Segment == "" {
		return fmt.Sprintf("patrón inválido: %s", e.Reason)
	}
	return fmt.Sprintf("patrón inválido en el token %d (%q): %s", e.Pos, e.Segment, e.Reason)
}

// Unwrap permite errors.Is(err, domain.ErrInvalidInput).
func (e *ValidationError) Unwrap() error { return domain.ErrInvalidInput }

var rangeToken = regexp.MustCompile(`^([A-Za-z0-9]*)\{(.*)\}$`)

// Pattern es un patrón ya validado, listo para contar o expandir.
type Pattern struct {
	segments []Segment
}

// Segments devuelve los tokens parseados en orden.
func (p *Pattern) Segments() []Segment { return p.segments }

// Parse valida el patrón completo y lo tokeniza. La validación es todo-o-nada:
// cualquier token malformado (guion faltante, límites no numéricos, lo > hi,
// anchos distintos) rechaza el patrón entero antes de generar nada.
func Parse(raw string) (*Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &ValidationError{Reason: "patrón vacío"}
	}

	var segs []Segment
	for i, tok := range splitSegments(raw) {
		if tok == "" {
			return nil, &ValidationError{Segment: tok, Pos: i, Reason: "token vacío"}
		}
		if !strings.ContainsAny(tok, "{}") {
			segs = append(segs, Segment{Prefix: tok})
			continue
		}
		m := rangeToken.FindStringSubmatch(tok)
		if m == nil {
			return nil, &ValidationError{Segment: tok, Pos: i, Reason: "llaves malformadas"}
		}
		seg, reason := parseRange(m[1], m[2])
		if reason != "" {
			return nil, &ValidationError{Segment: tok, Pos: i, Reason: reason}
		}
		segs = append(segs, seg)
	}
	return &Pattern{segments: segs}, nil
}

// parseRange valida el cuerpo "lo-hi" de un token con rango.
func parseRange(prefix, body string) (Segment, string) {
	lo, hi, ok := strings.Cut(body, "-")
	if !ok {
		return Segment{}, "rango sin guion (se espera {lo-hi})"
	}
	if lo == "" || hi == "" {
		return Segment{}, "límite de rango vacío"
	}
	loN, err := strconv.Atoi(lo)
	if err != nil {
		return Segment{}, fmt.Sprintf("límite inferior no numérico: %q", lo)
	}
	hiN, err := strconv.Atoi(hi)
	if err != nil {
		return Segment{}, fmt.Sprintf("límite superior no numérico: %q", hi)
	}
	if len(lo) != len(hi) {
		return Segment{}, fmt.Sprintf("los límites deben tener el mismo ancho zero-padded (%q vs %q)", lo, hi)
	}
	if loN > hiN {
		return Segment{}, fmt.Sprintf("límite inferior mayor que el superior (%d > %d)", loN, hiN)
	}
	return Segment{Prefix: prefix, Lo: loN, Hi: hiN, Width: len(lo), Range: true}, ""
}

// splitSegments parte el patrón por guiones que estén fuera de llaves,
// para no romper los rangos {lo-hi}.
func splitSegments(raw string) []string {
	var (
		segs  []string
		cur   strings.Builder
		depth int
	)
	for _, r := range raw {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case '-':
			if depth == 0 {
				segs = append(segs, cur.String())
				cur.Reset()
				continue
			}
		}
		cur.WriteRune(r)
	}
	segs = append(segs, cur.String())
	return segs
}

// Count devuelve el número total de combinaciones (producto de cardinalidades),
// saturado en MaxInt64: el producto puede dar la vuelta completa y caer en un
// valor pequeño no negativo, así que el desborde se detecta antes de multiplicar.
func (p *Pattern) Count() int64 {
	const max = int64(1<<63 - 1)
	total := int64(1)
	for _, s := range p.segments {
		card := s.Cardinality()
		if total > max/card {
			return max
		}
		total *= card
	}
	return total
}

// Expand genera todos los códigos del patrón en orden lexicográfico anidado.
// Falla de inmediato con domain.ErrPatternTooLarge si Count() excede ceiling
// (evita generar millones de filas por accidente). Respeta la cancelación del
// contexto entre emisiones; el caller decide qué hacer con lo ya emitido.
func (p *Pattern) Expand(ctx context.Context, ceiling int64) ([]string, error) {
	total := p.Count()
	if ceiling > 0 && total > ceiling {
		return nil, fmt.Errorf("%w: %d combinaciones (tope %d)", domain.ErrPatternTooLarge, total, ceiling)
	}

	codes := make([]string, 0, total)
	err := p.each(ctx, func(code string) error {
		codes = append(codes, code)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// each recorre las combinaciones con contadores anidados (sin recursión).
func (p *Pattern) each(ctx context.Context, fn func(code string) error) error {
	idx := make([]int, len(p.segments))
	var sb strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sb.Reset()
		for i, s := range p.segments {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteString(s.Prefix)
			if s.Range {
				sb.WriteString(fmt.Sprintf("%0*d", s.Width, s.Lo+idx[i]))
			}
		}
		if err := fn(sb.String()); err != nil {
			return err
		}
		// incrementar el contador más a la derecha (orden lexicográfico anidado)
		i := len(idx) - 1
		for ; i >= 0; i-- {
			idx[i]++
			if int64(idx[i]) < p.segments[i].Cardinality() {
				break
			}
			idx[i] = 0
		}
		if i < 0 {
			return nil
		}
	}
}

// Hierarchy descompone un código generado en sus atributos jerárquicos
// posicionales (sección, pasillo, rack, nivel, bin), igual que hace la
// creación masiva de ubicaciones.
func Hierarchy(code string) (section, aisle, rack, level, bin string) {
	parts := strings.Split(code, "-")
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return get(0), get(1), get(2), get(3), get(4)
}
