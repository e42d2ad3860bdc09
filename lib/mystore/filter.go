package mystore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
)

var timeType = reflect.TypeOf(time.Time{})

func fieldByName(entity any, name string) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("nil entity")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, fmt.Errorf("entity of type %s is not a struct", v.Type())
	}
	f := v.FieldByName(name)
	if !f.IsValid() {
		return reflect.Value{}, fmt.Errorf("entity of type %s has no field %s", v.Type(), name)
	}
	return f, nil
}

// compare returns -1, 0 or 1. Both sides must be of a comparable basic kind or time.Time.
func compare(left reflect.Value, right any) (int, error) {
	r := reflect.ValueOf(right)
	if !r.IsValid() {
		return 0, fmt.Errorf("cannot compare with nil")
	}

	if left.Type() == timeType || r.Type() == timeType {
		if left.Type() != timeType || r.Type() != timeType {
			return 0, fmt.Errorf("cannot compare %s with %s", left.Type(), r.Type())
		}
		lt := left.Interface().(time.Time)
		rt := r.Interface().(time.Time)
		switch {
		case lt.Before(rt):
			return -1, nil
		case lt.After(rt):
			return 1, nil
		default:
			return 0, nil
		}
	}

	switch left.Kind() {
	case reflect.String:
		if r.Kind() != reflect.String {
			return 0, fmt.Errorf("cannot compare string with %s", r.Type())
		}
		return strings.Compare(left.String(), r.String()), nil
	case reflect.Bool:
		if r.Kind() != reflect.Bool {
			return 0, fmt.Errorf("cannot compare bool with %s", r.Type())
		}
		if left.Bool() == r.Bool() {
			return 0, nil
		}
		if !left.Bool() {
			return -1, nil
		}
		return 1, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		lf, ok := asFloat(left)
		if !ok {
			return 0, fmt.Errorf("cannot compare %s", left.Type())
		}
		rf, ok := asFloat(r)
		if !ok {
			return 0, fmt.Errorf("cannot compare number with %s", r.Type())
		}
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("unsupported field type %s", left.Type())
	}
}

func asFloat(v reflect.Value) (float64, bool) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

func matches(entity any, filter Filter) (bool, error) {
	field, err := fieldByName(entity, filter.Field)
	if err != nil {
		return false, err
	}
	cmp, err := compare(field, filter.Value)
	if err != nil {
		return false, fmt.Errorf("error evaluating filter on %s: %s", filter.Field, err)
	}

	switch filter.Compare {
	case "=", "==":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return false, fmt.Errorf("unsupported comparison '%s'", filter.Compare)
	}
}

func applyFilters[T any](items []T, filters []Filter) ([]T, error) {
	result := []T{}
	for _, item := range items {
		keep := true
		for _, f := range filters {
			ok, err := matches(item, f)
			if err != nil {
				return nil, err
			}
			if !ok {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, item)
		}
	}
	return result, nil
}

func parseOrder(orderByField string) (string, bool) {
	if strings.HasPrefix(orderByField, "-") {
		return strings.TrimPrefix(orderByField, "-"), true
	}
	return orderByField, false
}

func applyOrder[T any](items []T, orderByField string) error {
	if orderByField == "" {
		return nil
	}
	fieldName, descending := parseOrder(orderByField)

	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		left, err := fieldByName(items[i], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		right, err := fieldByName(items[j], fieldName)
		if err != nil {
			sortErr = err
			return false
		}
		cmp, err := compare(left, right.Interface())
		if err != nil {
			sortErr = err
			return false
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	return sortErr
}
