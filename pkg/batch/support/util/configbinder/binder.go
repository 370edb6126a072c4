// Package configbinder decodes loosely typed configuration values (YAML maps,
// environment strings, driver values) into typed targets.
package configbinder

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// Bind decodes input into target, which must be a pointer.
// Struct fields are matched by their `yaml` tag, and weakly typed input is accepted
// (e.g. "10" into an int, int32 or float64 into an int64).
func Bind(input interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(input); err != nil {
		targetType := reflect.TypeOf(target)
		if targetType.Kind() == reflect.Ptr {
			targetType = targetType.Elem()
		}
		return fmt.Errorf("failed to bind properties to %s: %w", targetType.String(), err)
	}
	return nil
}

// BindProperties takes a map of string properties (e.g. flags or environment values)
// and binds them to a target struct.
func BindProperties(props map[string]string, target interface{}) error {
	if len(props) == 0 {
		return nil
	}

	// mapstructure requires map[string]interface{} for binding.
	intermediateMap := make(map[string]interface{}, len(props))
	for k, v := range props {
		intermediateMap[k] = v
	}
	return Bind(intermediateMap, target)
}
