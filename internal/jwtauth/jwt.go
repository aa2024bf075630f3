// Package jwtauth issues and validates the HS256 access tokens that carry a
// caller's subject and organization identity.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"factgate/pkg/apperrors"
	"factgate/pkg/domain"
)

// Claims are the token claims for access tokens.
type Claims struct {
	SubjectID      string `json:"subject_id"`
	OrganizationID string `json:"organization_id"`
	jwt.RegisteredClaims
}

// Identity is the validated caller identity extracted from a token.
type Identity struct {
	SubjectID      domain.SubjectID
	OrganizationID domain.OrganizationID
	JTI            string
	ExpiresAt      time.Time
}

// Service handles token creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueToken signs an access token for the given identity.
func (s *Service) IssueToken(subjectID domain.SubjectID, organizationID domain.OrganizationID, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		SubjectID:      subjectID.String(),
		OrganizationID: organizationID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token and returns the caller identity.
func (s *Service) ValidateToken(tokenString string) (*Identity, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "token has expired")
		}
		return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "invalid token claims")
	}

	subjectID, err := domain.ParseSubjectID(claims.SubjectID)
	if err != nil || subjectID.IsNil() {
		return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "token carries no subject")
	}
	// Organization is optional in the token; subjects outside any
	// organization still authenticate.
	var organizationID domain.OrganizationID
	if claims.OrganizationID != "" {
		organizationID, err = domain.ParseOrganizationID(claims.OrganizationID)
		if err != nil {
			return nil, apperrors.New(apperrors.CodeAuthenticationFailed, "token carries a malformed organization")
		}
	}

	identity := &Identity{
		SubjectID:      subjectID,
		OrganizationID: organizationID,
		JTI:            claims.ID,
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}
	return identity, nil
}
