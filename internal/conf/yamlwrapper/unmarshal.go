// Package yamlwrapper decodes YAML through the strict JSON decoder.
package yamlwrapper

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v2"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// yaml.v2 produces map[interface{}]interface{}, which encoding/json cannot handle.
func convertKeys(i any) (any, error) {
	switch x := i.(type) {
	case map[any]any:
		m2 := make(map[string]any, len(x))
		for k, v := range x {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string keys are not supported (%v)", k)
			}

			var err error
			m2[ks], err = convertKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return m2, nil

	case []any:
		a2 := make([]any, len(x))
		for i, v := range x {
			var err error
			a2[i], err = convertKeys(v)
			if err != nil {
				return nil, err
			}
		}
		return a2, nil
	}

	return i, nil
}

// Unmarshal decodes YAML into dest.
// Duplicate keys are rejected by yaml.UnmarshalStrict, unknown fields by jsonwrapper.
func Unmarshal(buf []byte, dest any) error {
	var temp any
	err := yaml.UnmarshalStrict(buf, &temp)
	if err != nil {
		return err
	}

	// an empty document decodes into the defaults
	if temp == nil {
		temp = map[string]any{}
	}

	temp, err = convertKeys(temp)
	if err != nil {
		return err
	}

	buf, err = json.Marshal(temp)
	if err != nil {
		return err
	}

	return jsonwrapper.Unmarshal(buf, dest)
}
