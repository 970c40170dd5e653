package models

import (
	"testing"

	"quiz-forge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONList_Value(t *testing.T) {
	var empty JSONList[domain.Question]
	v, err := empty.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	list := JSONList[domain.BlueprintItem]{{QuestionNumber: 1, Competency: "Algebra", CognitiveLevel: domain.CognitiveC2}}
	v, err = list.Value()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"questionNumber":1,"competency":"Algebra","indicator":"","cognitiveLevel":"C2"}]`, v.(string))
}

func TestJSONList_Scan(t *testing.T) {
	tests := []struct {
		name    string
		input   interface{}
		wantLen int
		wantErr bool
	}{
		{name: "nil", input: nil, wantLen: 0},
		{name: "empty string", input: "", wantLen: 0},
		{name: "json null", input: []byte("null"), wantLen: 0},
		{name: "array from string", input: `[{"id":"a","text":"2+2?"},{"id":"b","text":"3+3?"}]`, wantLen: 2},
		{name: "array from bytes", input: []byte(`[{"id":"a"}]`), wantLen: 1},
		{name: "invalid json", input: "{", wantErr: true},
		{name: "unsupported type", input: 42, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var l JSONList[domain.Question]
			err := l.Scan(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
			assert.Len(t, l, tt.wantLen)
		})
	}
}
