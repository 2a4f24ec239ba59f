package config

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/signal-tracker/pkg/marketdata"
)

// GenerateSchema generates a JSON schema for the YAML configuration file.
func GenerateSchema() *jsonschema.Schema {
	intervals := make([]any, 0, len(marketdata.Intervals()))
	for _, interval := range marketdata.Intervals() {
		intervals = append(intervals, string(interval))
	}

	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		FieldNameTag:               "yaml",
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == reflect.TypeFor[time.Duration]() {
				return &jsonschema.Schema{
					Type:        "string",
					Description: "Go duration such as 10s or 1m30s",
					Pattern:     `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(&Config{})
	schema.Title = "signal-tracker-config"
	schema.Description = "Configuration schema for signal-tracker"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	if evaluator, ok := schema.Definitions["EvaluatorConfig"]; ok && evaluator.Properties != nil {
		if interval, ok := evaluator.Properties.Get("interval"); ok {
			interval.Enum = intervals
		}
	}

	return schema
}

// GenerateSchemaJSON renders GenerateSchema as indented JSON.
func GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
