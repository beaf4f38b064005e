// Package permissions decides whether an actor may perform an action on a
// resource. Every predicate is a pure function over the actor, the target and
// the submitted field set; a deny is a normal return value, never an error.
package permissions

import (
	"github.com/innotter/backend/internal/models"
)

// Verb mirrors the HTTP method of the triggering request.
type Verb string

const (
	VerbGet     Verb = "GET"
	VerbHead    Verb = "HEAD"
	VerbOptions Verb = "OPTIONS"
	VerbPost    Verb = "POST"
	VerbPut     Verb = "PUT"
	VerbPatch   Verb = "PATCH"
	VerbDelete  Verb = "DELETE"
)

// Safe reports whether the verb is read-only.
func (v Verb) Safe() bool {
	return v == VerbGet || v == VerbHead || v == VerbOptions
}

// Partial reports whether the verb carries a field-scoped partial update.
func (v Verb) Partial() bool {
	return v == VerbPut || v == VerbPatch
}

// Decision is the outcome of a permission check. Reason is set on deny and is
// suitable for surfacing in a 403 response.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Reason: reason}
}

// FieldSet is the set of field names submitted in a partial update.
type FieldSet map[string]struct{}

func NewFieldSet(names ...string) FieldSet {
	fs := make(FieldSet, len(names))
	for _, n := range names {
		fs[n] = struct{}{}
	}
	return fs
}

// SubsetOf reports whether every field in fs is granted by other.
func (fs FieldSet) SubsetOf(other FieldSet) bool {
	for n := range fs {
		if _, ok := other[n]; !ok {
			return false
		}
	}
	return true
}

// Field grants per actor relationship. An update is all-or-nothing: the
// submitted set must fit entirely inside one grant, so a request mixing
// owner-only and authority-only fields is denied for everybody.
var (
	pageOwnerFields     = NewFieldSet("name", "description", "image", "is_private")
	pageAuthorityFields = NewFieldSet("is_blocked", "unblock_date")
	userSelfFields      = NewFieldSet("username", "email")
	userAuthorityFields = NewFieldSet("is_blocked")
)

// CanReadPage gates object-level page reads. Pages are publicly listable;
// private pages restrict membership, not visibility of the page itself.
func CanReadPage(actor *models.User, page *models.Page) Decision {
	return allow()
}

// CanWritePage gates partial updates of a page.
func CanWritePage(actor *models.User, page *models.Page, verb Verb, fields FieldSet) Decision {
	if verb.Safe() {
		return allow()
	}
	if actor == nil {
		return deny("authentication required")
	}
	if !verb.Partial() {
		return deny("unsupported verb for page update")
	}
	if len(fields) == 0 {
		return deny("no updatable fields submitted")
	}

	owner := actor.ID == page.OwnerID
	authority := actor.IsAuthority()

	switch {
	case owner && fields.SubsetOf(pageOwnerFields):
		return allow()
	case authority && fields.SubsetOf(pageAuthorityFields):
		return allow()
	case owner || authority:
		return deny("submitted fields are outside your allowed set")
	default:
		return deny("you do not have permission to modify this page")
	}
}

// CanDeletePage allows only the owner to delete a page. Authority roles get
// update rights over blocking fields but deliberately no delete parity.
func CanDeletePage(actor *models.User, page *models.Page) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.ID != page.OwnerID {
		return deny("only the page owner may delete it")
	}
	return allow()
}

// CanReadUser gates object-level user reads; profiles are listable.
func CanReadUser(actor *models.User, target *models.User) Decision {
	return allow()
}

// CanWriteUser gates partial updates of a user: self may change account
// fields, authority roles may toggle the blocked flag, nobody else writes.
func CanWriteUser(actor *models.User, target *models.User, verb Verb, fields FieldSet) Decision {
	if verb.Safe() {
		return allow()
	}
	if actor == nil {
		return deny("authentication required")
	}
	if !verb.Partial() {
		return deny("unsupported verb for user update")
	}
	if len(fields) == 0 {
		return deny("no updatable fields submitted")
	}

	self := actor.ID == target.ID
	authority := actor.IsAuthority()

	switch {
	case self && fields.SubsetOf(userSelfFields):
		return allow()
	case authority && fields.SubsetOf(userAuthorityFields):
		return allow()
	case self || authority:
		return deny("submitted fields are outside your allowed set")
	default:
		return deny("you do not have permission to modify this user")
	}
}

// CanDeleteUser restricts account deletion to authority roles.
func CanDeleteUser(actor *models.User, target *models.User) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if !actor.IsAuthority() {
		return deny("only moderators and admins may delete users")
	}
	return allow()
}

// CanCreatePost allows posting only on pages the actor owns.
func CanCreatePost(actor *models.User, page *models.Page) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.ID != page.OwnerID {
		return deny("you don't have permission to create posts for this page")
	}
	return allow()
}

// CanWritePost allows updates only by the owning page's owner.
func CanWritePost(actor *models.User, page *models.Page) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.ID != page.OwnerID {
		return deny("you don't have permission to update this post")
	}
	return allow()
}

// CanDeletePost allows the owning page's owner plus authority roles.
func CanDeletePost(actor *models.User, page *models.Page) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.ID == page.OwnerID || actor.IsAuthority() {
		return allow()
	}
	return deny("you don't have permission to delete this post")
}

// CanLikePost denies liking your own page's posts.
func CanLikePost(actor *models.User, page *models.Page) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if actor.ID == page.OwnerID {
		return deny("you cannot like a post that you own")
	}
	return allow()
}

// CanUnlikePost requires the actor to be a current liker.
func CanUnlikePost(actor *models.User, isLiker bool) Decision {
	if actor == nil {
		return deny("authentication required")
	}
	if !isLiker {
		return deny("you have not liked this post")
	}
	return allow()
}
