package permissions

import (
	"testing"

	"reviewhub/internal/domain"

	"github.com/stretchr/testify/assert"
)

func user(role string, superuser bool) *domain.User {
	return &domain.User{ID: 1, Role: role, IsSuperuser: superuser}
}

func TestAdminOrReadOnly(t *testing.T) {
	tests := []struct {
		name  string
		u     *domain.User
		write bool
		want  bool
	}{
		{"anonymous read", nil, false, true},
		{"anonymous write", nil, true, false},
		{"plain user read", user(domain.RoleUser, false), false, true},
		{"plain user write", user(domain.RoleUser, false), true, false},
		{"moderator write", user(domain.RoleModerator, false), true, false},
		{"admin write", user(domain.RoleAdmin, false), true, true},
		{"superuser write", user(domain.RoleUser, true), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdminOrReadOnly(tt.u, tt.write))
		})
	}
}

func TestAdminOrSuperuser(t *testing.T) {
	assert.False(t, AdminOrSuperuser(nil))
	assert.False(t, AdminOrSuperuser(user(domain.RoleUser, false)))
	assert.False(t, AdminOrSuperuser(user(domain.RoleModerator, false)))
	assert.True(t, AdminOrSuperuser(user(domain.RoleAdmin, false)))
	assert.True(t, AdminOrSuperuser(user(domain.RoleUser, true)))
}

func TestAuthorModeratorOrReadOnly(t *testing.T) {
	assert.True(t, AuthorModeratorOrReadOnly(nil, false))
	assert.False(t, AuthorModeratorOrReadOnly(nil, true))
	assert.True(t, AuthorModeratorOrReadOnly(user(domain.RoleUser, false), true))
}

func TestAuthorModeratorObject(t *testing.T) {
	author := user(domain.RoleUser, false)
	author.ID = 5

	tests := []struct {
		name     string
		u        *domain.User
		authorID uint
		want     bool
	}{
		{"anonymous is denied", nil, 5, false},
		{"author may mutate own object", author, 5, true},
		{"other plain user is denied", user(domain.RoleUser, false), 5, false},
		{"moderator may mutate", user(domain.RoleModerator, false), 5, true},
		{"admin may mutate", user(domain.RoleAdmin, false), 5, true},
		{"superuser may mutate", user(domain.RoleUser, true), 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorModeratorObject(tt.u, tt.authorID))
		})
	}
}
