package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bakery-erp/config"
	"bakery-erp/internal/managerio"
	"bakery-erp/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRules() []config.AssignmentRule {
	return []config.AssignmentRule{
		{Keyword: "cake", CategoryCode: "PC-A", AssignedTo: "Rakib"},
		{Keyword: "pastry", CategoryCode: "PC-A", AssignedTo: "Rakib"},
		{Keyword: "savory", CategoryCode: "PC-B", AssignedTo: "Saiful"},
		{Keyword: "frozen", CategoryCode: "PC-B", AssignedTo: "Saiful"},
		{Keyword: "bread", CategoryCode: "PC-C", AssignedTo: "Mamun"},
		{Keyword: "cookie", CategoryCode: "PC-C", AssignedTo: "Mamun"},
		{Keyword: "restaurant", CategoryCode: "PC-D", AssignedTo: "Rashed"},
	}
}

func TestInferAssignment(t *testing.T) {
	p := &PlannerService{rules: testRules()}

	tests := []struct {
		category     string
		expectedCode string
		expectedTo   string
	}{
		{"Cake", "PC-A", "Rakib"},
		{"birthday cakes", "PC-A", "Rakib"},
		{"Danish Pastry", "PC-A", "Rakib"},
		{"Savory Items", "PC-B", "Saiful"},
		{"Frozen Snacks", "PC-B", "Saiful"},
		{"Sourdough Bread", "PC-C", "Mamun"},
		{"Cookies", "PC-C", "Mamun"},
		{"Restaurant Supply", "PC-D", "Rashed"},
	}

	for _, tt := range tests {
		code, assignee := p.inferAssignment(tt.category)
		assert.Equal(t, tt.expectedCode, code, "category %q", tt.category)
		assert.Equal(t, tt.expectedTo, assignee, "category %q", tt.category)
	}
}

func TestInferAssignmentFallback(t *testing.T) {
	p := &PlannerService{rules: testRules()}

	code, assignee := p.inferAssignment("seasonal specials")
	assert.Empty(t, code)
	assert.Equal(t, unassignedWorker, assignee)

	code, assignee = p.inferAssignment("")
	assert.Empty(t, code)
	assert.Equal(t, unassignedWorker, assignee)
}

func TestInferAssignmentFirstRuleWins(t *testing.T) {
	p := &PlannerService{rules: testRules()}

	// "frozen savory" matches savory before frozen by rule order.
	code, assignee := p.inferAssignment("savory frozen mix")
	assert.Equal(t, "PC-B", code)
	assert.Equal(t, "Saiful", assignee)
}

func TestResubmitReturnsExistingKeyWithoutAPICall(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Write([]byte(`{"key": "fresh-key"}`))
	}))
	defer srv.Close()

	client, err := managerio.NewClient(srv.URL, "test-key", 100, 5)
	require.NoError(t, err)

	p := NewPlannerService(nil, client, nil, testRules())
	order := &models.ProductionOrder{
		ID:             42,
		ItemCode:       "FG-CAKE-01",
		ManagerOrderID: "ext-already-there",
	}

	key, err := p.submitOrder(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, "ext-already-there", key)
	assert.Equal(t, 0, requests, "an already-submitted order must not hit the API again")
}

func TestDefaultString(t *testing.T) {
	assert.Equal(t, "a", defaultString("a", "b"))
	assert.Equal(t, "b", defaultString("", "b"))
}

func TestNullInt64(t *testing.T) {
	assert.False(t, nullInt64(0).Valid)
	assert.True(t, nullInt64(3).Valid)
	assert.EqualValues(t, 3, nullInt64(3).Int64)
}
