package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgate/internal/fact"
	"factgate/internal/origin"
	"factgate/internal/security"
)

// The dev subject must be able to reach every wired endpoint, including the
// origin read API.
func TestDevSnapshotGrantsEveryFunction(t *testing.T) {
	snap := devSnapshot()

	subject, ok := snap.Subject(1)
	require.True(t, ok)

	gw := security.NewGateway(security.Identity{
		SubjectID:      subject.ID,
		OrganizationID: subject.OrganizationID,
	}, snap)

	for _, fn := range []string{fact.FunctionAddFact, fact.FunctionViewFacts, origin.FunctionViewOrigins} {
		assert.NoError(t, gw.CheckPermission(fn), fn)
	}
}
