package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innkeep/innkeep/pkg/schema"
)

func validTable() []RoutingRule {
	return []RoutingRule{
		{Node: schema.NodeParallelExtract, When: `outcome == "continue"`, Next: schema.NodeSearch},
		{Node: schema.NodeSearch, When: `outcome == "continue"`, Next: schema.NodeAvailabilityCheck},
		{Node: schema.NodeAvailabilityCheck, When: `outcome == "continue"`, Next: ""},
	}
}

func TestValidateRoutingRules_Valid(t *testing.T) {
	require.NoError(t, ValidateRoutingRules(validTable()))
}

func TestValidateRoutingRules_Empty(t *testing.T) {
	err := ValidateRoutingRules(nil)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeConfig, schema.CodeOf(err))
}

func TestValidateRoutingRules_UnknownNodes(t *testing.T) {
	rules := validTable()
	rules[0].Node = "extract"
	err := ValidateRoutingRules(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")

	rules = validTable()
	rules[1].Next = "checkout"
	err = ValidateRoutingRules(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown node")
}

func TestValidateRoutingRules_EmptyGuard(t *testing.T) {
	rules := validTable()
	rules[2].When = ""
	err := ValidateRoutingRules(rules)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeConfig, schema.CodeOf(err))
}

func TestValidateRoutingRules_ShadowedRule(t *testing.T) {
	rules := append(validTable(), RoutingRule{
		Node: schema.NodeSearch, When: `outcome == "continue"`, Next: schema.NodeBook,
	})
	err := ValidateRoutingRules(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "can never match")
}
