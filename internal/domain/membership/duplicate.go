package membership

import "time"

// statusRank orders membership statuses by how settled they are.
var statusRank = map[MembershipStatus]int{
	StatusValidated: 5,
	StatusPaid:      4,
	StatusPartial:   3,
	StatusPending:   2,
	StatusRejected:  1,
}

// PickExisting returns the membership to reuse among candidates for the same
// associate and season: best status first, then the most recently touched.
// It returns nil for an empty slice.
func PickExisting(candidates []*Membership) *Membership {
	var best *Membership
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if best == nil || outranks(c, best) {
			best = c
		}
	}
	return best
}

func outranks(a, b *Membership) bool {
	ra, rb := statusRank[a.Status], statusRank[b.Status]
	if ra != rb {
		return ra > rb
	}
	return lastTouched(a).After(lastTouched(b))
}

func lastTouched(m *Membership) time.Time {
	if m.UpdatedAt.After(m.CreatedAt) {
		return m.UpdatedAt
	}
	return m.CreatedAt
}

// GuardsDuplicates reports whether registration must look for an existing
// membership.  SeasonAll memberships are never deduplicated; whether that is
// intended is unresolved, so the branch is kept as-is and logged by callers.
func GuardsDuplicates(season string) bool {
	return season != SeasonAll
}

//Personal.AI order the ending
