package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/MimeLyc/sales-copilot/internal/research"
	"github.com/MimeLyc/sales-copilot/internal/tools"
)

// FinalOutput is the terminal answer shape the model is asked to produce
type FinalOutput struct {
	Result string `json:"result" jsonschema_description:"The complete answer for the sales representative, formatted as Markdown"`
}

var (
	outputSchema         = tools.OpenSchemaFor(FinalOutput{})
	compiledOutputSchema = mustCompile(outputSchema)
)

func mustCompile(schema json.RawMessage) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("compile output schema: %v", err))
	}
	return s
}

// OutputSchema returns the JSON schema of FinalOutput
func OutputSchema() json.RawMessage {
	return append(json.RawMessage(nil), outputSchema...)
}

// FormatInstructions tells the model how to wrap its final answer
func FormatInstructions() string {
	return "The output must be a JSON object that conforms to the JSON schema below.\n" +
		"For the schema {\"properties\": {\"foo\": {\"type\": \"string\"}}, \"required\": [\"foo\"]} " +
		"the object {\"foo\": \"bar\"} is well formatted, while {\"properties\": {\"foo\": \"bar\"}} is not.\n\n" +
		"Here is the output schema:\n```\n" + string(outputSchema) + "\n```"
}

// ParseFinalAnswer extracts the answer text from a model's final message.
//
// A JSON object with a pre_call_report key is rendered from that key. A JSON
// object with a string result yields it, extra keys are ignored. Anything else is returned
// verbatim together with an error wrapping ErrOutputSchemaMismatch.
func ParseFinalAnswer(raw string) (string, error) {
	body := stripCodeFence(strings.TrimSpace(raw))

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return raw, fmt.Errorf("%w: not a JSON object", ErrOutputSchemaMismatch)
	}

	if report, ok := obj["pre_call_report"]; ok {
		if text, ok := reportText(report); ok {
			return text, nil
		}
	}

	result, err := compiledOutputSchema.Validate(gojsonschema.NewStringLoader(body))
	if err != nil {
		return raw, fmt.Errorf("%w: %v", ErrOutputSchemaMismatch, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return raw, fmt.Errorf("%w: %s", ErrOutputSchemaMismatch, strings.Join(problems, "; "))
	}

	var out FinalOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return raw, fmt.Errorf("%w: %v", ErrOutputSchemaMismatch, err)
	}
	return out.Result, nil
}

func reportText(raw json.RawMessage) (string, bool) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	var report research.PreCallReport
	if err := json.Unmarshal(raw, &report); err == nil && (report.ProspectSummary != "" || report.CompanySummary != "") {
		return report.Markdown(), true
	}
	return "", false
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	s = strings.TrimPrefix(s, "json")
	return strings.TrimSpace(s)
}
