// Package env loads configuration values from environment variables.
package env

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
)

// Unmarshaler can be implemented by a configuration value to parse itself.
type Unmarshaler interface {
	UnmarshalEnv(prefix string, v string) error
}

func hasKeyWithPrefix(env map[string]string, prefix string) bool {
	for key := range env {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

func parseBool(prefix string, v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "true":
		return true, nil

	case "no", "false":
		return false, nil
	}
	return false, fmt.Errorf("%s: invalid value '%s'", prefix, v)
}

func loadScalar(env map[string]string, prefix string, prv reflect.Value, rt reflect.Type) (bool, error) {
	ev, ok := env[prefix]

	switch rt.Kind() {
	case reflect.String:
		if ok {
			if prv.IsNil() {
				prv.Set(reflect.New(rt))
			}
			prv.Elem().SetString(ev)
		}
		return true, nil

	case reflect.Int, reflect.Int64:
		if ok {
			iv, err := strconv.ParseInt(ev, 10, 64)
			if err != nil {
				return true, fmt.Errorf("%s: %w", prefix, err)
			}
			if prv.IsNil() {
				prv.Set(reflect.New(rt))
			}
			prv.Elem().SetInt(iv)
		}
		return true, nil

	case reflect.Uint, reflect.Uint64:
		if ok {
			uv, err := strconv.ParseUint(ev, 10, 64)
			if err != nil {
				return true, fmt.Errorf("%s: %w", prefix, err)
			}
			if prv.IsNil() {
				prv.Set(reflect.New(rt))
			}
			prv.Elem().SetUint(uv)
		}
		return true, nil

	case reflect.Bool:
		if ok {
			bv, err := parseBool(prefix, ev)
			if err != nil {
				return true, err
			}
			if prv.IsNil() {
				prv.Set(reflect.New(rt))
			}
			prv.Elem().SetBool(bv)
		}
		return true, nil
	}

	return false, nil
}

func loadInternal(env map[string]string, prefix string, prv reflect.Value) error {
	if prv.Kind() != reflect.Pointer {
		return loadInternal(env, prefix, prv.Addr())
	}

	rt := prv.Type().Elem()

	if i, ok := prv.Interface().(Unmarshaler); ok {
		if ev, ok := env[prefix]; ok {
			if prv.IsNil() {
				prv.Set(reflect.New(rt))
				i = prv.Interface().(Unmarshaler)
			}
			if err := i.UnmarshalEnv(prefix, ev); err != nil {
				return fmt.Errorf("%s: %w", prefix, err)
			}
		}
		return nil
	}

	if handled, err := loadScalar(env, prefix, prv, rt); handled {
		return err
	}

	switch rt.Kind() {
	case reflect.Struct:
		for i := 0; i < rt.NumField(); i++ {
			f := rt.Field(i)
			jsonTag := strings.Split(f.Tag.Get("json"), ",")[0]
			if jsonTag == "" || jsonTag == "-" {
				continue
			}

			err := loadInternal(env, prefix+"_"+strings.ToUpper(jsonTag), prv.Elem().Field(i))
			if err != nil {
				return err
			}
		}
		return nil

	case reflect.Slice:
		switch rt.Elem().Kind() {
		case reflect.String:
			if ev, ok := env[prefix]; ok {
				if prv.IsNil() {
					prv.Set(reflect.New(rt))
				}
				if ev == "" {
					prv.Elem().Set(reflect.MakeSlice(rt, 0, 0))
				} else {
					vals := reflect.MakeSlice(rt, 0, 0)
					for _, s := range strings.Split(ev, ",") {
						vals = reflect.Append(vals, reflect.ValueOf(s).Convert(rt.Elem()))
					}
					prv.Elem().Set(vals)
				}
			}
			return nil

		case reflect.Struct:
			if ev, ok := env[prefix]; ok && ev == "" {
				prv.Elem().Set(reflect.MakeSlice(rt, 0, 0))
				return nil
			}

			for i := 0; ; i++ {
				itemPrefix := prefix + "_" + strconv.Itoa(i)
				if !hasKeyWithPrefix(env, itemPrefix+"_") {
					break
				}

				// existing items are patched, missing ones are appended
				if i < prv.Elem().Len() {
					err := loadInternal(env, itemPrefix, prv.Elem().Index(i))
					if err != nil {
						return err
					}
					continue
				}

				elem := reflect.New(rt.Elem())
				err := loadInternal(env, itemPrefix, elem.Elem())
				if err != nil {
					return err
				}
				prv.Elem().Set(reflect.Append(prv.Elem(), elem.Elem()))
			}
			return nil
		}
	}

	return fmt.Errorf("unsupported type: %v", rt)
}

func loadWithEnv(env map[string]string, prefix string, v any) error {
	return loadInternal(env, prefix, reflect.ValueOf(v).Elem())
}

func envToMap() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		tmp := strings.SplitN(kv, "=", 2)
		env[tmp[0]] = tmp[1]
	}
	return env
}

// Load overrides fields of v with environment variables named after
// prefix and the upper-cased JSON tags of the fields.
func Load(prefix string, v any) error {
	return loadWithEnv(envToMap(), prefix, v)
}
