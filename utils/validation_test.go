package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidClassName(t *testing.T) {
	require.True(t, IsValidClassName("com.example.Service"))
	require.True(t, IsValidClassName("Service"))
	require.True(t, IsValidClassName("com.example.inner$Nested"))

	require.False(t, IsValidClassName(""))
	require.False(t, IsValidClassName("com..example"))
	require.False(t, IsValidClassName("1com.example"))
	require.False(t, IsValidClassName("com.example."))
}

func TestIsValidUUID(t *testing.T) {
	require.True(t, IsValidUUID("a1b2c3d4-e5f6-7890-abcd-ef1234567890"))
	require.False(t, IsValidUUID("not-a-uuid"))
	require.False(t, IsValidUUID(""))
}

func TestValidateStructUsesBindingTags(t *testing.T) {
	type command struct {
		AggregateID string `binding:"required"`
		ClassName   string `binding:"required"`
	}

	require.NoError(t, ValidateStruct(command{AggregateID: "agg-1", ClassName: "com.example.Service"}))
	require.Error(t, ValidateStruct(command{ClassName: "com.example.Service"}))
	require.Error(t, ValidateStruct(command{AggregateID: "agg-1"}))
}

func TestValidateAggregateID(t *testing.T) {
	require.NoError(t, ValidateAggregateID("agg-1"))
	require.Error(t, ValidateAggregateID(""))
}
