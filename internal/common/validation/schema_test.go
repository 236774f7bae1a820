package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitPayloadSchema(t *testing.T) {
	schema := MustCompile("submit", SubmitPayloadSchema)

	tests := []struct {
		name     string
		doc      string
		valid    bool
		field    string
		contains string
	}{
		{
			name:  "valid",
			doc:   `{"dstId":"D1","gun":"Pazartesi","duraklar":[{"sira":1,"musteriKodu":"A"}]}`,
			valid: true,
		},
		{
			name:  "empty stops",
			doc:   `{"dstId":"D1","gun":"Pazartesi","duraklar":[]}`,
			field: "duraklar",
		},
		{
			name:     "missing day",
			doc:      `{"dstId":"D1","duraklar":[{"sira":1,"musteriKodu":"A"}]}`,
			contains: "gun",
		},
		{
			name:  "zero sequence",
			doc:   `{"dstId":"D1","gun":"Salı","duraklar":[{"sira":0,"musteriKodu":"A"}]}`,
			field: "duraklar.0.sira",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := schema.ValidateJSON([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.Valid, res.Summary())
			if tt.field != "" {
				assert.True(t, res.HasErrors(tt.field), res.Summary())
			}
			if tt.contains != "" {
				assert.Contains(t, res.Summary(), tt.contains)
			}
		})
	}
}

func TestRequestListSchema(t *testing.T) {
	schema := MustCompile("requests", RequestListSchema)

	res, err := schema.ValidateJSON([]byte(`[{"id":1,"durum":"beklemede","duraklar":null},{"id":"x","durum":"onaylandi"}]`))
	require.NoError(t, err)
	assert.True(t, res.Valid, res.Summary())

	res, err = schema.ValidateJSON([]byte(`[{"id":true,"durum":"beklemede"}]`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.GetErrorMessages())
}

func TestValidateValue(t *testing.T) {
	schema := MustCompile("submit", SubmitPayloadSchema)
	res, err := schema.ValidateValue(map[string]interface{}{"dstId": "D1"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile("broken", `{"type":`)
	assert.Error(t, err)
	assert.Panics(t, func() { MustCompile("broken", `{"type":`) })
}

func TestValidateJSON_MalformedDocument(t *testing.T) {
	schema := MustCompile("requests", RequestListSchema)
	_, err := schema.ValidateJSON([]byte(`[{`))
	assert.Error(t, err)
}
