package store

// Keys are the kv keys of one namespace.
type Keys struct {
	Users         string
	Sessions      string
	Audit         string
	SchemaVersion string
	ActiveToken   string
	UserSeq       string
	SessionSeq    string
}

// KeysFor derives the keys for namespace, e.g. "yms" gives "yms_auth_users".
func KeysFor(namespace string) Keys {
	p := namespace + "_"
	return Keys{
		Users:         p + "auth_users",
		Sessions:      p + "auth_sessions",
		Audit:         p + "auth_audit",
		SchemaVersion: p + "auth_schema_version",
		ActiveToken:   p + "session_token",
		UserSeq:       p + "auth_users_seq",
		SessionSeq:    p + "auth_sessions_seq",
	}
}
