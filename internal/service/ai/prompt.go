package ai

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

const systemInstruction = "You are a helpful assistant for geography questions."

// answerPayload is the structured output the model must produce.
type answerPayload struct {
	Answer string   `json:"answer" jsonschema_description:"The answer to the question."`
	Lat    *float64 `json:"lat" jsonschema:"nullable" jsonschema_description:"The latitude of the location. Null when the question is not about a place."`
	Lon    *float64 `json:"lon" jsonschema:"nullable" jsonschema_description:"The longitude of the location. Null when the question is not about a place."`
}

// answerSchema reflects answerPayload into an inlined JSON schema.
func answerSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return json.MarshalIndent(reflector.Reflect(&answerPayload{}), "", "  ")
}

// buildFormatInstructions 生成追加在系统提示后的输出格式说明。
func buildFormatInstructions() (string, error) {
	schemaJSON, err := answerSchema()
	if err != nil {
		return "", fmt.Errorf("failed to build answer schema: %w", err)
	}

	return "The output must be a single JSON object that conforms to the JSON schema below.\n" +
		"Do not write anything outside the JSON object.\n" +
		"Latitude is in [-90, 90] and longitude in [-180, 180], both in decimal degrees.\n" +
		"If the question does not refer to a place, set \"lat\" and \"lon\" to null.\n\n" +
		"Here is the output schema:\n```\n" + string(schemaJSON) + "\n```", nil
}
