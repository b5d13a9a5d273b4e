package event

// PlayerLoggedIn fires after credential validation succeeds, before the
// player enters a region.
type PlayerLoggedIn struct {
	SessionID uint64
	Account   string
}

// PlayerEnteredWorld fires once the player's avatar exists and the first
// cell load has been queued.
type PlayerEnteredWorld struct {
	SessionID   uint64
	EntityID    uint64
	RegionProto uint64
}

// PlayerDisconnected fires when a session closes for any reason. The
// player row is already saved by then; subscribers only observe.
type PlayerDisconnected struct {
	SessionID uint64
	EntityID  uint64
}
