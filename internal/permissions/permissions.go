// Package permissions holds the access policies as pure predicates over
// (caller, method kind, optional target owner). A nil user is an
// unauthenticated caller. Predicates never error; they return allow/deny
// and the HTTP layer maps a denial to 401 or 403.
package permissions

import "reviewhub/internal/domain"

// AdminOrReadOnly allows reads for anyone and writes only for admins or
// superusers. Applied to the category, genre and title collections.
func AdminOrReadOnly(u *domain.User, write bool) bool {
	if !write {
		return true // Reads are public
	}
	return u != nil && u.HasAdminRights() // Writes need admin-equivalence
}

// AdminOrSuperuser requires an authenticated admin-equivalent caller for
// every method. Applied to the user collection.
func AdminOrSuperuser(u *domain.User) bool {
	return u != nil && u.HasAdminRights()
}

// AuthorModeratorOrReadOnly gates the review and comment collections.
// Reads are public; collection-level writes need any authenticated caller.
func AuthorModeratorOrReadOnly(u *domain.User, write bool) bool {
	if !write {
		return true // Reads are public
	}
	return u != nil // Any authenticated caller may create
}

// AuthorModeratorObject gates object-level mutation of a review or comment:
// the author, a moderator, an admin or a superuser. An unauthenticated
// caller is always denied here.
func AuthorModeratorObject(u *domain.User, authorID uint) bool {
	if u == nil {
		return false // Anonymous object mutation is denied
	}
	return u.ID == authorID || u.IsModerator() || u.HasAdminRights()
}
