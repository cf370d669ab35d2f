// Package store is the credential store: the users, sessions and audit
// collections plus the schema-version gate, persisted as JSON documents in a
// kv medium under namespaced keys.
//
// Collections are read and written whole. Malformed or absent documents
// read as empty collections (logged at warn level); failures of the medium
// itself are returned. Callers that read, modify and write back several
// collections do so inside Store.WithTx so the writes land together.
package store
