package model_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmate/offer-watcher/internal/model"
)

func TestParseFilters_KeepsDocumentOrder(t *testing.T) {
	f, err := model.ParseFilters(`{"type":["fulltime","parttime"],"agreement":["part"]}`)
	require.NoError(t, err)

	require.Len(t, f, 2)
	assert.Equal(t, "type", f[0].Key)
	assert.Equal(t, []string{"fulltime", "parttime"}, f[0].Codes)
	assert.Equal(t, "agreement", f[1].Key)
}

func TestParseFilters_SingleValue(t *testing.T) {
	f, err := model.ParseFilters(`{"type":"fulltime"}`)
	require.NoError(t, err)
	assert.Equal(t, model.Filters{{Key: "type", Codes: []string{"fulltime"}}}, f)
}

func TestParseFilters_Empty(t *testing.T) {
	f, err := model.ParseFilters("")
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = model.ParseFilters("{}")
	require.NoError(t, err)
	assert.Empty(t, f)
}

func TestParseFilters_Invalid(t *testing.T) {
	for _, in := range []string{`[]`, `{"type": 3}`, `{"type": [1]}`, `{`} {
		_, err := model.ParseFilters(in)
		assert.Error(t, err, in)
	}
}

func TestParseFilters_DuplicateKeyRejected(t *testing.T) {
	_, err := model.ParseFilters(`{"type":["fulltime"],"type":["parttime"]}`)
	assert.ErrorContains(t, err, `duplicate key "type"`)
}

func TestFilters_MarshalJSON(t *testing.T) {
	f := model.Filters{
		{Key: "type", Codes: []string{"fulltime"}},
		{Key: "agreement", Codes: nil},
	}
	b, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, `{"type":["fulltime"],"agreement":[]}`, string(b))
}
