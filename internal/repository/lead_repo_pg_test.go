package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLeadRepository(t *testing.T) {
	repo := NewLeadRepository(nil)

	assert.NotNil(t, repo)
	assert.Implements(t, (*LeadRepository)(nil), repo)
}
