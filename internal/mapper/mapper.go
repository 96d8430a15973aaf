// Package mapper translates between the remote row shapes in package model and
// the local domain shapes. Every function is pure.
package mapper

import (
	"encoding/json"
	"fmt"

	"posync/internal/domain"
	"posync/internal/model"
)

// MappingError reports a row whose content cannot be turned into a domain
// record. Callers skip the row and keep going.
type MappingError struct {
	Collection string
	ID         string
	Field      string
	Err        error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapper: %s %q field %s: %v", e.Collection, e.ID, e.Field, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// Codec pairs both directions of one collection so the engine can treat
// collections generically.
type Codec[R model.Row, D domain.Record] struct {
	Collection string
	ToDomain   func(R) (D, error)
	ToRemote   func(D) R
}

var (
	Sales = Codec[*model.SaleRow, domain.Sale]{
		Collection: model.TableSales, ToDomain: SaleToDomain, ToRemote: SaleToRemote,
	}
	Closures = Codec[*model.DayClosureRow, domain.DayClosure]{
		Collection: model.TableDayClosures, ToDomain: ClosureToDomain, ToRemote: ClosureToRemote,
	}
	Expenses = Codec[*model.ExpenseRow, domain.Expense]{
		Collection: model.TableExpenses, ToDomain: ExpenseToDomain, ToRemote: ExpenseToRemote,
	}
	Injections = Codec[*model.CashInjectionRow, domain.CashInjection]{
		Collection: model.TableCashInjections, ToDomain: InjectionToDomain, ToRemote: InjectionToRemote,
	}
	SettingsCodec = Codec[*model.SettingsRow, domain.Settings]{
		Collection: model.TableSettings, ToDomain: SettingsToDomain, ToRemote: SettingsToRemote,
	}
)

// encodeJSON never fails for the value types stored in text columns
// (slices, string-keyed maps, decimals).
func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// decodeJSON leaves v untouched for an empty column, so absent stays absent.
func decodeJSON(collection, id, field, raw string, v any) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return &MappingError{Collection: collection, ID: id, Field: field, Err: err}
	}
	return nil
}
