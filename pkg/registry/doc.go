// Package registry records, per catalog entry, whether saveli manages it.
//
// The Registry itself is an in-memory map guarded by a mutex. Persistence
// goes through the Store interface; FileStore keeps a TOML document on disk
// and replaces it atomically on every save. AcquireLock serialises saveli
// processes that would otherwise race on the same registry file.
package registry
