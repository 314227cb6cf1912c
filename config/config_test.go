package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssignmentRules(t *testing.T) {
	rules := parseAssignmentRules("cake=PC-A:Rakib, bread=PC-C:Mamun")
	require.Len(t, rules, 2)

	assert.Equal(t, "cake", rules[0].Keyword)
	assert.Equal(t, "PC-A", rules[0].CategoryCode)
	assert.Equal(t, "Rakib", rules[0].AssignedTo)

	assert.Equal(t, "bread", rules[1].Keyword)
	assert.Equal(t, "PC-C", rules[1].CategoryCode)
	assert.Equal(t, "Mamun", rules[1].AssignedTo)
}

func TestParseAssignmentRulesLowercasesKeyword(t *testing.T) {
	rules := parseAssignmentRules("Cake=PC-A:Rakib")
	require.Len(t, rules, 1)
	assert.Equal(t, "cake", rules[0].Keyword)
}

func TestParseAssignmentRulesDropsMalformed(t *testing.T) {
	// A rule needs both the keyword=value split and the CODE:Assignee
	// split; everything else is dropped.
	rules := parseAssignmentRules("cake=PC-A:Rakib,garbage,missing=colon,,=:")
	require.Len(t, rules, 1)
	assert.Equal(t, "cake", rules[0].Keyword)
}

func TestParseAssignmentRulesDefault(t *testing.T) {
	rules := parseAssignmentRules(defaultAssignmentRules)
	assert.Len(t, rules, 7)
}
