package dialogue

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Schema describes the JSON script file format.
func Schema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.ReflectFromType(reflect.TypeOf(ScriptFile{}))
	if schema == nil {
		return nil, fmt.Errorf("dialogue: failed to reflect script schema")
	}
	schema.Title = "Dialogue Script"
	schema.Description = "States of the terminal dialogue, their lines and the choices between them."
	return schema, nil
}
