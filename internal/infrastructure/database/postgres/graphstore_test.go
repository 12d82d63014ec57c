package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/graphctx/pkg/errors"
	"github.com/turtacn/graphctx/pkg/graphmodel"
)

func TestGraphStore_AddEdges_RejectsUnregisteredRelationType(t *testing.T) {
	store := &GraphStore{relationTypes: map[string]graphmodel.RelationType{
		"TREATS": {Name: "TREATS", Directed: true},
	}}

	err := store.AddEdges(context.Background(), []graphmodel.Edge{{RelationType: "UNKNOWN"}})
	assert.Error(t, err)

	var appErr *errors.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.CodeUnknownRelationType, appErr.Code)
}

func TestReconstructPath(t *testing.T) {
	a, b, c := graphmodel.NewID(), graphmodel.NewID(), graphmodel.NewID()
	parent := map[graphmodel.ID]graphmodel.ID{b: a, c: b}

	path := reconstructPath(parent, a, c)
	assert.Equal(t, []graphmodel.ID{a, b, c}, path)
}

func TestBuildConnString_DefaultsSSLModeToDisable(t *testing.T) {
	cfg := Config{Host: "localhost", Port: 5432, User: "u", Password: "p", Database: "db"}
	assert.Contains(t, buildConnString(cfg), "sslmode=disable")
}
