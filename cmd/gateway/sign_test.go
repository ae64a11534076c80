package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFields(t *testing.T) {
	fields, err := parseFields([]string{"oid=ORD-1", "responseSuccessURL=https://x/?a=b", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"oid":                "ORD-1",
		"responseSuccessURL": "https://x/?a=b",
		"empty":              "",
	}, fields)

	_, err = parseFields([]string{"novalue"})
	assert.Error(t, err)

	_, err = parseFields([]string{"=value"})
	assert.Error(t, err)
}
