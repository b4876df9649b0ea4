package types

// Health summarises how an entry's on-disk situation compares to its
// registry state
type Health string

const (
	// HealthOK: linked and the link points into storage
	HealthOK Health = "ok"

	// HealthLinkMissing: linked but no link exists, restore recreates it
	HealthLinkMissing Health = "link-missing"

	// HealthStorageMissing: linked but the data is gone from storage
	HealthStorageMissing Health = "storage-missing"

	// HealthConflict: linked but something else occupies the origin
	HealthConflict Health = "conflict"

	// HealthAvailable: unmanaged and save data was found, link would act
	HealthAvailable Health = "available"

	// HealthStray: unmanaged but already linked into storage
	HealthStray Health = "stray-link"

	HealthAbsent  Health = "absent"
	HealthIgnored Health = "ignored"
)

// StatusEntry is one row of the status report
type StatusEntry struct {
	Entry    CatalogEntry
	State    EntryState
	Location ResolvedLocation
	Health   Health

	// Err is set when the entry could not be inspected
	Err error
}

// StatusReport is the result of the status command
type StatusReport struct {
	StorageRoot string
	Entries     []StatusEntry
}

// SearchHit is one catalog entry matching a search keyword
type SearchHit struct {
	Entry CatalogEntry
	State EntryState
}
