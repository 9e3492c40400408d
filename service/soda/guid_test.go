package soda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertionGUID_Deterministic(t *testing.T) {
	fields := []string{"urn:li:schemaField:(urn:li:dataset:(urn:li:dataPlatform:postgres,db.s.t,PROD),id)"}

	first, err := AssertionGUID("soda", "missing_count", "missing_count(id) = 0",
		"urn:li:dataset:(urn:li:dataPlatform:postgres,db.s.t,PROD)", fields, "check1")
	require.NoError(t, err)

	second, err := AssertionGUID("soda", "missing_count", "missing_count(id) = 0",
		"urn:li:dataset:(urn:li:dataPlatform:postgres,db.s.t,PROD)", fields, "check1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 32) // md5十六进制
}

func TestAssertionGUID_CanonicalForm(t *testing.T) {
	// 期望值为规范JSON(键排序、紧凑、无HTML转义、非ASCII以\uXXXX转义)的md5
	tests := []struct {
		name       string
		nativeType string
		definition string
		fields     []string
		checkName  string
		expected   string
	}{
		{
			// 定义中的>不得HTML转义
			name:       "比较运算符原样哈希",
			nativeType: "row_count",
			definition: "row_count > 0",
			checkName:  "c1",
			expected:   "2e89ff84620ad9fb5c67912162746758",
		},
		{
			name:       "非ASCII检查名转义参与哈希",
			nativeType: "row_count",
			definition: "row_count > 0",
			checkName:  "订单行数检查",
			expected:   "51fe60837761852d659fdd311db64a2a",
		},
		{
			name:       "字段列表参与哈希",
			nativeType: "missing_count",
			definition: "missing_count(id) = 0",
			fields:     []string{MakeSchemaFieldURN(testDatasetURN, "id")},
			checkName:  "c1",
			expected:   "97faa9636d0b1f23f571618bcf79c6ca",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guid, err := AssertionGUID("soda", tt.nativeType, tt.definition, testDatasetURN, tt.fields, tt.checkName)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, guid)
		})
	}
}

func TestAssertionGUID_FieldChangesGUID(t *testing.T) {
	datasetURN := "urn:li:dataset:(urn:li:dataPlatform:postgres,db.s.t,PROD)"

	base, err := AssertionGUID("soda", "missing_count", "def", datasetURN, nil, "check1")
	require.NoError(t, err)

	changedName, err := AssertionGUID("soda", "missing_count", "def", datasetURN, nil, "check2")
	require.NoError(t, err)
	assert.NotEqual(t, base, changedName)

	changedDefinition, err := AssertionGUID("soda", "missing_count", "def2", datasetURN, nil, "check1")
	require.NoError(t, err)
	assert.NotEqual(t, base, changedDefinition)

	withFields, err := AssertionGUID("soda", "missing_count", "def", datasetURN,
		[]string{"urn:li:schemaField:(x,id)"}, "check1")
	require.NoError(t, err)
	assert.NotEqual(t, base, withFields)
}
