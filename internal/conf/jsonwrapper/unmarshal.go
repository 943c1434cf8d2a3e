// Package jsonwrapper contains a strict JSON decoder.
package jsonwrapper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
)

// differences with respect to encoding/json:
// - unknown fields are rejected
// - existing slices are dropped before decoding, so that old elements are never reused
// - non-pointer slices cannot be set to null

func fieldPath(parent string, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func resetSlices(v reflect.Value, raw any, path string) error {
	switch v.Kind() {
	case reflect.Slice:
		if raw == nil {
			if path != "" {
				return fmt.Errorf("cannot set slice '%s' to nil", path)
			}
			return fmt.Errorf("cannot set slice to nil")
		}

		if !v.IsNil() {
			v.Set(reflect.Zero(v.Type()))
		}

	case reflect.Struct:
		rawMap, ok := raw.(map[string]any)
		if !ok {
			return nil
		}

		vType := v.Type()
		for i := 0; i < v.NumField(); i++ {
			key := strings.Split(vType.Field(i).Tag.Get("json"), ",")[0]
			if key == "" || key == "-" {
				continue
			}

			if rawVal, ok := rawMap[key]; ok {
				err := resetSlices(v.Field(i), rawVal, fieldPath(path, key))
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Unmarshal decodes JSON from a buffer.
func Unmarshal(buf []byte, dest any) error {
	var raw any
	if err := json.Unmarshal(buf, &raw); err != nil {
		return err
	}

	if err := resetSlices(reflect.ValueOf(dest).Elem(), raw, ""); err != nil {
		return err
	}

	d := json.NewDecoder(bytes.NewReader(buf))
	d.DisallowUnknownFields()
	return d.Decode(dest)
}

// Decode decodes JSON from a reader.
func Decode(r io.Reader, dest any) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return Unmarshal(buf, dest)
}
