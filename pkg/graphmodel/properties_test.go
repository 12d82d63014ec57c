package graphmodel_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func TestProperties_Lookup_DottedPath(t *testing.T) {
	p := graphmodel.Properties{
		"address": map[string]interface{}{
			"city": "Springfield",
		},
		"name": "PT-10001",
	}

	v, ok := p.Lookup("address.city")
	assert.True(t, ok)
	assert.Equal(t, "Springfield", v)

	v, ok = p.Lookup("name")
	assert.True(t, ok)
	assert.Equal(t, "PT-10001", v)

	_, ok = p.Lookup("address.zip")
	assert.False(t, ok)

	_, ok = p.Lookup("name.sub")
	assert.False(t, ok)
}

func TestConstraint_PropertyEquals(t *testing.T) {
	props := graphmodel.Properties{"name": "Type 2 Diabetes"}
	c := graphmodel.Constraint{
		Type:         graphmodel.ConstraintPropertyEquals,
		PropertyPath: "name",
		Value:        "Type 2 Diabetes",
	}
	assert.True(t, c.Evaluate(props))

	c.Value = "Something Else"
	assert.False(t, c.Evaluate(props))
}

func TestConstraint_PropertyInAndNotIn(t *testing.T) {
	props := graphmodel.Properties{"severity": "HIGH"}

	in := graphmodel.Constraint{
		Type:         graphmodel.ConstraintPropertyIn,
		PropertyPath: "severity",
		Value:        []interface{}{"LOW", "HIGH"},
	}
	assert.True(t, in.Evaluate(props))

	notIn := graphmodel.Constraint{
		Type:         graphmodel.ConstraintNotIn,
		PropertyPath: "severity",
		Value:        []interface{}{"LOW", "MEDIUM"},
	}
	assert.True(t, notIn.Evaluate(props))

	notInMiss := graphmodel.Constraint{
		Type:         graphmodel.ConstraintNotIn,
		PropertyPath: "missing",
		Value:        []interface{}{"LOW"},
	}
	assert.True(t, notInMiss.Evaluate(props))
}

func TestConstraint_NumericComparisons(t *testing.T) {
	props := graphmodel.Properties{"age": 45.0}

	gt := graphmodel.Constraint{Type: graphmodel.ConstraintGreaterThan, PropertyPath: "age", Value: 40.0}
	assert.True(t, gt.Evaluate(props))

	lt := graphmodel.Constraint{Type: graphmodel.ConstraintLessThan, PropertyPath: "age", Value: 40.0}
	assert.False(t, lt.Evaluate(props))

	badCoerce := graphmodel.Constraint{Type: graphmodel.ConstraintGreaterThan, PropertyPath: "age", Value: "not-a-number"}
	assert.False(t, badCoerce.Evaluate(props))
}

func TestConstraint_StringPredicates(t *testing.T) {
	props := graphmodel.Properties{"name": "Type 2 Diabetes"}

	contains := graphmodel.Constraint{Type: graphmodel.ConstraintContains, PropertyPath: "name", Value: "Diabetes"}
	assert.True(t, contains.Evaluate(props))

	starts := graphmodel.Constraint{Type: graphmodel.ConstraintStartsWith, PropertyPath: "name", Value: "Type"}
	assert.True(t, starts.Evaluate(props))

	ends := graphmodel.Constraint{Type: graphmodel.ConstraintEndsWith, PropertyPath: "name", Value: "Diabetes"}
	assert.True(t, ends.Evaluate(props))
}

func TestConstraint_RegexMatch(t *testing.T) {
	props := graphmodel.Properties{"code": "PT-10001"}

	valid := graphmodel.Constraint{Type: graphmodel.ConstraintRegexMatch, PropertyPath: "code", Value: `PT-\d+`}
	assert.True(t, valid.Evaluate(props))

	noMatch := graphmodel.Constraint{Type: graphmodel.ConstraintRegexMatch, PropertyPath: "code", Value: `XY-\d+`}
	assert.False(t, noMatch.Evaluate(props))

	invalidRegex := graphmodel.Constraint{Type: graphmodel.ConstraintRegexMatch, PropertyPath: "code", Value: `[`}
	assert.False(t, invalidRegex.Evaluate(props))
}

func TestEdge_EffectiveWeight_DefaultsToOne(t *testing.T) {
	e := graphmodel.Edge{}
	assert.Equal(t, 1.0, e.EffectiveWeight())

	e.Weight = 2.5
	assert.Equal(t, 2.5, e.EffectiveWeight())
}

func TestRetrievalRequest_ApplyDefaults(t *testing.T) {
	r := &graphmodel.RetrievalRequest{Query: "diabetes"}
	r.ApplyDefaults()
	assert.Equal(t, graphmodel.DefaultTopK, r.TopK)
	assert.Equal(t, graphmodel.DefaultMaxGraphNodes, r.MaxGraphNodes)
	assert.Equal(t, graphmodel.DefaultMaxTokenBudget, r.MaxTokenBudget)
	assert.Equal(t, graphmodel.DefaultDepth, r.Depth())
}
