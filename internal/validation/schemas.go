package validation

import (
	"errors"
	"slices"
	"strings"

	"viagem/internal/core"
)

const maxDescriptionLen = 200

var (
	errRequired   = errors.New("required")
	errOutOfRange = errors.New("out of range")
)

func required[T any](field, label string, get func(T) string) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) error {
		if strings.TrimSpace(get(v)) == "" {
			return invalid(label+" é obrigatório", errRequired)
		}
		return nil
	}}
}

func description[T any](field string, get func(T) string) []Rule[T] {
	return []Rule[T]{
		{Field: field, Check: func(v T) error {
			if strings.TrimSpace(get(v)) == "" {
				return invalid("descrição é obrigatória", core.ErrEmptyDescription)
			}
			return nil
		}},
		{Field: field, Check: func(v T) error {
			if len([]rune(get(v))) > maxDescriptionLen {
				return invalid("descrição muito longa (máx. 200 caracteres)", errOutOfRange)
			}
			return nil
		}},
	}
}

func positive[T any](field string, get func(T) float64) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) error {
		if get(v) <= 0 {
			return invalid("valor deve ser maior que zero", core.ErrInvalidAmount)
		}
		return nil
	}}
}

func nonNegative[T any](field string, get func(T) float64) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) error {
		if get(v) < 0 {
			return invalid("valor não pode ser negativo", core.ErrInvalidAmount)
		}
		return nil
	}}
}

func requiredDate[T any](field string, get func(T) core.Date) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) error {
		if get(v).IsEmpty() {
			return invalid("data é obrigatória", core.ErrInvalidDate)
		}
		return nil
	}}
}

// knownOrigin accepts any non-empty origin when origins is empty.
func knownOrigin[T any](field string, origins []string, get func(T) string) []Rule[T] {
	rules := []Rule[T]{required(field, "origem", get)}
	if len(origins) == 0 {
		return rules
	}
	return append(rules, Rule[T]{Field: field, Check: func(v T) error {
		if !slices.Contains(origins, strings.TrimSpace(get(v))) {
			return invalid("origem desconhecida: "+get(v), core.ErrUnknownOrigin)
		}
		return nil
	}})
}

func currency[T any](field string, get func(T) string) Rule[T] {
	return Rule[T]{Field: field, Check: func(v T) error {
		c := strings.TrimSpace(get(v))
		if len(c) != 3 || strings.ToUpper(c) != c {
			return invalid("moeda deve ser um código ISO de 3 letras", errOutOfRange)
		}
		return nil
	}}
}

// BudgetSchema validates budget entries. origins lists the accepted budget
// origins; an empty list accepts any non-empty origin.
func BudgetSchema(origins []string) Schema[core.Budget] {
	s := Schema[core.Budget]{}
	s = append(s, knownOrigin("origin", origins, func(b core.Budget) string { return b.Origin })...)
	s = append(s, description("description", func(b core.Budget) string { return b.Description })...)
	s = append(s, positive("amount", func(b core.Budget) float64 { return b.Amount }))
	return s
}

func ExpenseSchema(origins []string) Schema[core.Expense] {
	s := Schema[core.Expense]{}
	s = append(s, description("description", func(e core.Expense) string { return e.Description })...)
	s = append(s,
		positive("amount", func(e core.Expense) float64 { return e.Amount }),
		currency("currency", func(e core.Expense) string { return e.Currency }),
		positive("amountInBRL", func(e core.Expense) float64 { return e.AmountInBRL }),
		required("category", "categoria", func(e core.Expense) string { return e.Category }),
	)
	s = append(s, knownOrigin("budgetOrigin", origins, func(e core.Expense) string { return e.BudgetOrigin })...)
	s = append(s,
		requiredDate("date", func(e core.Expense) core.Date { return e.Date }),
		required("country", "país", func(e core.Expense) string { return e.Country }),
	)
	return s
}

func coordinate(field string, limit float64, get func(core.Attraction) *float64) Rule[core.Attraction] {
	return Rule[core.Attraction]{Field: field, Check: func(a core.Attraction) error {
		v := get(a)
		if v != nil && (*v < -limit || *v > limit) {
			return invalid("coordenada fora do intervalo", errOutOfRange)
		}
		return nil
	}}
}

func AttractionSchema() Schema[core.Attraction] {
	return Schema[core.Attraction]{
		required("name", "nome", func(a core.Attraction) string { return a.Name }),
		required("country", "país", func(a core.Attraction) string { return a.Country }),
		required("city", "cidade", func(a core.Attraction) string { return a.City }),
		nonNegative("couplePrice", func(a core.Attraction) float64 { return a.CouplePrice }),
		nonNegative("priceInBRL", func(a core.Attraction) float64 { return a.PriceInBRL }),
		{Field: "currency", Check: func(a core.Attraction) error {
			if a.Currency == "" {
				return nil
			}
			return currency("currency", func(a core.Attraction) string { return a.Currency }).Check(a)
		}},
		{Field: "reservationStatus", Check: func(a core.Attraction) error {
			if a.ReservationStatus != "" && !a.ReservationStatus.IsValid() {
				return invalid("status de reserva inválido", errOutOfRange)
			}
			return nil
		}},
		{Field: "order", Check: func(a core.Attraction) error {
			if a.Order < 0 || a.Day < 0 {
				return invalid("dia e ordem não podem ser negativos", errOutOfRange)
			}
			return nil
		}},
		{Field: "duration", Check: func(a core.Attraction) error {
			if a.Duration < 0 {
				return invalid("duração não pode ser negativa", errOutOfRange)
			}
			return nil
		}},
		coordinate("lat", 90, func(a core.Attraction) *float64 { return a.Lat }),
		coordinate("lng", 180, func(a core.Attraction) *float64 { return a.Lng }),
	}
}

func ChecklistItemSchema() Schema[core.ChecklistItem] {
	s := Schema[core.ChecklistItem]{}
	s = append(s, description("description", func(c core.ChecklistItem) string { return c.Description })...)
	s = append(s,
		required("category", "categoria", func(c core.ChecklistItem) string { return c.Category }),
		Rule[core.ChecklistItem]{Field: "quantity", Check: func(c core.ChecklistItem) error {
			if c.Quantity < 0 {
				return invalid("quantidade não pode ser negativa", errOutOfRange)
			}
			return nil
		}},
	)
	return s
}

func ReservationSchema() Schema[core.Reservation] {
	return Schema[core.Reservation]{
		required("title", "título", func(r core.Reservation) string { return r.Title }),
		{Field: "type", Check: func(r core.Reservation) error {
			if !r.Type.IsValid() {
				return invalid("tipo de reserva inválido", errOutOfRange)
			}
			return nil
		}},
		{Field: "status", Check: func(r core.Reservation) error {
			if !r.Status.IsValid() {
				return invalid("status de reserva inválido", errOutOfRange)
			}
			return nil
		}},
		{Field: "endDate", Check: func(r core.Reservation) error {
			if !r.Date.IsEmpty() && !r.EndDate.IsEmpty() && r.EndDate.Before(r.Date.Time) {
				return invalid("data final anterior à data inicial", core.ErrInvalidDate)
			}
			return nil
		}},
		nonNegative("amount", func(r core.Reservation) float64 { return r.Amount }),
	}
}
