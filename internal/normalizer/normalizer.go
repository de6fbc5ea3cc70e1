// Package normalizer turns raw API customer records into model.Customer values.
package normalizer

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strconv"
	"strings"
	"unicode"

	appErrors "github.com/unclebandit/customer-sync/internal/errors"
	"github.com/unclebandit/customer-sync/internal/model"
)

// Normalize converts a raw record into a Customer.
// It returns nil when the record is not an object or has no usable integer id.
func Normalize(v any) *model.Customer {
	raw, ok := v.(model.RawCustomer)
	if !ok || raw == nil {
		return nil
	}

	id, ok := parseID(raw["id"])
	if !ok {
		return nil
	}

	return &model.Customer{
		ID:     id,
		CgID:   toString(raw["cgId"]),
		Name:   toString(raw["name"]),
		Email:  toString(raw["email"]),
		Mobile: toString(raw["mobile"]),
	}
}

// NormalizeAll keeps response order and drops every record Normalize rejects.
func NormalizeAll(raws []any) ([]model.Customer, int) {
	customers := make([]model.Customer, 0, len(raws))
	dropped := 0

	for _, raw := range raws {
		c := Normalize(raw)
		if c == nil {
			dropped++
			log.Println("⚠️", appErrors.NewValidation(raw))
			continue
		}
		customers = append(customers, *c)
	}
	return customers, dropped
}

// Largest integer a JSON number carries without loss.
const maxSafeInteger = 1<<53 - 1

func parseID(v any) (int, bool) {
	switch id := v.(type) {
	case float64:
		return fromFloat(id)
	case json.Number:
		if f, err := id.Float64(); err == nil {
			return fromFloat(f)
		}
		return parseLeadingInt(id.String())
	case string:
		return parseLeadingInt(id)
	case int:
		return fromInt(int64(id))
	case int64:
		return fromInt(id)
	}
	return 0, false
}

func fromInt(n int64) (int, bool) {
	if n > maxSafeInteger || n < -maxSafeInteger {
		return 0, false
	}
	return int(n), true
}

func fromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if math.Abs(t) > maxSafeInteger {
		return 0, false
	}
	return int(t), true
}

// parseLeadingInt reads an optional sign and the leading run of decimal digits,
// ignoring leading whitespace and anything after the digits.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return fromInt(n)
}

// toString treats every falsy value (nil, false, 0, "") as empty.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if !s {
			return ""
		}
		return "true"
	case float64:
		if s == 0 || math.IsNaN(s) {
			return ""
		}
		return strconv.FormatFloat(s, 'f', -1, 64)
	case json.Number:
		if f, err := s.Float64(); err == nil && f == 0 {
			return ""
		}
		return s.String()
	case int:
		if s == 0 {
			return ""
		}
		return strconv.Itoa(s)
	case int64:
		if s == 0 {
			return ""
		}
		return strconv.FormatInt(s, 10)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
