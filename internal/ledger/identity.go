package ledger

// Identity describes the caller of a balance-affecting operation.
//
// It is built at the HTTP boundary from the verified token and threaded
// explicitly through every processor call; the ledger package never reads
// ambient session state.
type Identity struct {
	UserID        uint64 // Authenticated user or admin ID, zero if anonymous.
	Authenticated bool   // Whether the caller presented valid credentials.
	Admin         bool   // Whether the caller holds the admin role.
}

// CanOperateCard reports whether the identity may spend from a card owned by
// ownerUserID. Admins may operate any card; users only their own.
func (id Identity) CanOperateCard(ownerUserID uint64) bool {
	if !id.Authenticated {
		return false
	}
	return id.Admin || id.UserID == ownerUserID
}
