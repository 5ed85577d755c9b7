package service

import (
	"golang.org/x/text/cases"

	"ghdigest/internal/adapters/github"
)

// diffFollowers compares the stored snapshot with the current list by case-folded login.
// added keeps upstream order, gone keeps snapshot order
func diffFollowers(prev []string, cur []github.User) (added []github.User, gone []string) {
	fold := cases.Fold()
	now := make(map[string]struct{}, len(cur))
	for _, u := range cur {
		now[fold.String(u.Login)] = struct{}{}
	}
	before := make(map[string]struct{}, len(prev))
	for _, l := range prev {
		f := fold.String(l)
		before[f] = struct{}{}
		if _, ok := now[f]; !ok {
			gone = append(gone, l)
		}
	}
	for _, u := range cur {
		if _, ok := before[fold.String(u.Login)]; !ok {
			added = append(added, u)
		}
	}
	return added, gone
}

func logins(us []github.User) []string {
	out := make([]string, 0, len(us))
	for _, u := range us {
		out = append(out, u.Login)
	}
	return out
}
