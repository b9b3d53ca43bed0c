package client

import (
	"bytes"
	"encoding/json"

	"github.com/xeipuuv/gojsonschema"
)

// Value is a display-only scalar sent by the backend. A JSON string keeps its
// text and a number keeps its literal, so 9.5 renders as 9.5 and "$9" as $9.
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(b)
	return nil
}

func (v Value) String() string { return string(v) }

// Book is one recommended book record.
type Book struct {
	ASIN         Value `json:"asin"`
	Title        Value `json:"title"`
	FinalPrice   Value `json:"final_price"`
	Rating       Value `json:"rating"`
	ReviewsCount Value `json:"reviews_count"`
	MainCategory Value `json:"main_category"`
}

// Envelope is the /recommend response: either Recommendation or Error.
type Envelope struct {
	Recommendation []Book  `json:"recommendation"`
	Error          *string `json:"error"`
}

// IsError reports whether the backend answered with a business error.
func (e *Envelope) IsError() bool { return e.Error != nil }

const envelopeSchemaJSON = `{
  "type": "object",
  "oneOf": [
    {
      "required": ["recommendation"],
      "not": {"required": ["error"]},
      "properties": {
        "recommendation": {"type": "array", "items": {"type": "object"}}
      }
    },
    {
      "required": ["error"],
      "not": {"required": ["recommendation"]},
      "properties": {
        "error": {"type": "string"}
      }
    }
  ]
}`

var envelopeSchema = mustSchema(envelopeSchemaJSON)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic("client: invalid envelope schema: " + err.Error())
	}
	return schema
}
