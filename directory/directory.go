// Package directory is the smallest possible entity.Core: a static,
// config-loaded set of authorized user names. AuthUser: header lines
// resolve against it. There is no library in the example corpus for
// "name -> identity" lookup narrower than a full auth/ACL system
// (casbin, in KartikBazzad-bunbase, is the closest and is overkill for
// resolving a single header value against a static allow-list; see
// DESIGN.md), so this is plain Go.
package directory

import "github.com/watchflow/queryplan/entity"

type namedUser string

func (u namedUser) Name() string { return string(u) }

// Directory resolves AuthUser: values against a fixed set of known
// users, falling back to entity.NoAuthUser for anyone else.
type Directory struct {
	known map[string]entity.User
}

// New builds a Directory that recognizes exactly the given names.
func New(names []string) *Directory {
	d := &Directory{known: make(map[string]entity.User, len(names))}
	for _, name := range names {
		d.known[name] = namedUser(name)
	}
	return d
}

// FindUser implements entity.Core. An unrecognized name resolves to
// entity.NoAuthUser rather than an error — spec §4.E's AuthUser: header
// has no failure mode, since find_user is documented as total.
func (d *Directory) FindUser(name string) entity.User {
	if u, ok := d.known[name]; ok {
		return u
	}
	return entity.NoAuthUser
}
