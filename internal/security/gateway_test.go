package security

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factgate/internal/access"
	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
)

var (
	rootOrgID   = domain.OrganizationID(uuid.New())
	europeOrgID = domain.OrganizationID(uuid.New())
	acmeOrgID   = domain.OrganizationID(uuid.New())
	apacOrgID   = domain.OrganizationID(uuid.New())

	aliceID    = domain.SubjectID(uuid.New())
	bobID      = domain.SubjectID(uuid.New())
	analystsID = domain.SubjectID(uuid.New())
)

// alice is an analyst in acme (member of europe, member of root); bob is a
// plain subject in apac with no grants.
func testSnapshot() *access.Snapshot {
	return access.NewBuilder().
		SetFunctions([]access.Function{
			{Name: "threatIntelUser", Group: true, Members: []string{"viewFacts", "addFact"}},
			{Name: "viewFacts"},
			{Name: "addFact"},
		}).
		SetOrganizations([]access.Organization{
			{InternalID: 1, ID: rootOrgID, Name: "root", Group: true, Members: []int64{2, 4}},
			{InternalID: 2, ID: europeOrgID, Name: "europe", Group: true, Members: []int64{3}},
			{InternalID: 3, ID: acmeOrgID, Name: "acme"},
			{InternalID: 4, ID: apacOrgID, Name: "apac"},
		}).
		SetSubjects([]access.Subject{
			{InternalID: 10, ID: aliceID, Name: "alice", OrganizationID: acmeOrgID},
			{InternalID: 11, ID: bobID, Name: "bob", OrganizationID: apacOrgID},
			{InternalID: 12, ID: analystsID, Name: "analysts", Group: true,
				Members: []int64{10}, Functions: []string{"threatIntelUser"}},
		}).
		Build()
}

func aliceGateway() *Gateway {
	return NewGateway(Identity{SubjectID: aliceID, OrganizationID: acmeOrgID}, testSnapshot())
}

func bobGateway() *Gateway {
	return NewGateway(Identity{SubjectID: bobID, OrganizationID: apacOrgID}, testSnapshot())
}

func TestCheckPermission(t *testing.T) {
	t.Run("group grant through subject-group closure succeeds", func(t *testing.T) {
		// alice holds nothing directly; analysts grants threatIntelUser which
		// expands to addFact.
		assert.NoError(t, aliceGateway().CheckPermission("addFact"))
		assert.NoError(t, aliceGateway().CheckPermission("viewFacts"))
	})

	t.Run("missing grant is denied", func(t *testing.T) {
		err := bobGateway().CheckPermission("addFact")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})

	t.Run("subject unknown to snapshot is denied", func(t *testing.T) {
		gw := NewGateway(Identity{SubjectID: domain.SubjectID(uuid.New())}, testSnapshot())
		err := gw.CheckPermission("viewFacts")
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})
}

func TestCheckFactReadPermission(t *testing.T) {
	t.Run("public is readable by anyone", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModePublic, OrganizationID: acmeOrgID}
		assert.NoError(t, bobGateway().CheckFactReadPermission(fact))
	})

	t.Run("role based within own organization", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModeRoleBased, OrganizationID: acmeOrgID}
		assert.NoError(t, aliceGateway().CheckFactReadPermission(fact))
	})

	t.Run("role based via ancestor group", func(t *testing.T) {
		// acme is a transitive member of root, so root-owned facts are visible.
		fact := FactAccess{AccessMode: domain.AccessModeRoleBased, OrganizationID: rootOrgID}
		assert.NoError(t, aliceGateway().CheckFactReadPermission(fact))
	})

	t.Run("role based outside closure is denied", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModeRoleBased, OrganizationID: apacOrgID}
		err := aliceGateway().CheckFactReadPermission(fact)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})

	t.Run("explicit with direct ACL grant", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModeExplicit, OrganizationID: apacOrgID,
			ACL: []domain.SubjectID{aliceID}}
		assert.NoError(t, aliceGateway().CheckFactReadPermission(fact))
	})

	t.Run("explicit with subject-group ACL grant", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModeExplicit, OrganizationID: apacOrgID,
			ACL: []domain.SubjectID{analystsID}}
		assert.NoError(t, aliceGateway().CheckFactReadPermission(fact))
	})

	t.Run("explicit without grant is denied", func(t *testing.T) {
		fact := FactAccess{AccessMode: domain.AccessModeExplicit, OrganizationID: acmeOrgID,
			ACL: []domain.SubjectID{bobID}}
		err := aliceGateway().CheckFactReadPermission(fact)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})

	t.Run("missing access mode fails closed", func(t *testing.T) {
		err := aliceGateway().CheckFactReadPermission(FactAccess{OrganizationID: acmeOrgID})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})
}

func TestCheckOrganizationReadPermission(t *testing.T) {
	t.Run("nil organization is globally readable", func(t *testing.T) {
		assert.NoError(t, bobGateway().CheckOrganizationReadPermission(domain.OrganizationID{}))
	})

	t.Run("descendant organization is readable", func(t *testing.T) {
		// A caller running as the root group sees its members.
		gw := NewGateway(Identity{SubjectID: aliceID, OrganizationID: rootOrgID}, testSnapshot())
		assert.NoError(t, gw.CheckOrganizationReadPermission(acmeOrgID))
	})

	t.Run("unrelated organization is denied", func(t *testing.T) {
		err := aliceGateway().CheckOrganizationReadPermission(apacOrgID)
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeAccessDenied))
	})
}

func TestHasFactReadPermission(t *testing.T) {
	fact := FactAccess{AccessMode: domain.AccessModeRoleBased, OrganizationID: acmeOrgID}
	assert.True(t, aliceGateway().HasFactReadPermission(fact))
	assert.False(t, bobGateway().HasFactReadPermission(fact))
}
