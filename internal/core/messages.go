package core

// Messages resolves message keys to human-readable text.
type Messages interface {
	Text(key string, args ...interface{}) string
}
