package config

import (
	"encoding"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// MergeFromEnv overrides fields of cfg from the environment variables named
// in their `env` struct tags. Nested structs are walked recursively. Unset
// and empty variables leave the field untouched.
func MergeFromEnv(cfg any) error {
	return mergeFromEnv(reflect.ValueOf(cfg))
}

func mergeFromEnv(v reflect.Value) error {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}

	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		envVar := t.Field(i).Tag.Get("env")
		textual := reflect.PointerTo(field.Type()).Implements(textUnmarshalerType)

		if field.Kind() == reflect.Struct && !textual {
			if err := mergeFromEnv(field); err != nil {
				return err
			}
			continue
		}
		if envVar == "" {
			continue
		}
		value := os.Getenv(envVar)
		if value == "" {
			continue
		}
		if err := setField(field, value); err != nil {
			return fmt.Errorf("invalid %s: %w", envVar, err)
		}
	}
	return nil
}

func setField(field reflect.Value, value string) error {
	if u, ok := field.Addr().Interface().(encoding.TextUnmarshaler); ok {
		return u.UnmarshalText([]byte(value))
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeFor[time.Duration]() {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
			return nil
		}
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", field.Type())
		}
		values := strings.Split(value, ",")
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
		}
		field.Set(reflect.ValueOf(values))

	default:
		return fmt.Errorf("unsupported type %s", field.Kind())
	}
	return nil
}
