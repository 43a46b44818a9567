package cache

// ScopedKeyer wraps a Keyer with a prefix, giving each run or dataset its
// own key namespace inside a shared cache directory.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// TableKey generates a prefixed key for one year's aggregated rows.
func (k *ScopedKeyer) TableKey(year int, inputHash, configHash string) string {
	return k.prefix + k.inner.TableKey(year, inputHash, configHash)
}

// LayoutKey generates a prefixed key for a layout result.
func (k *ScopedKeyer) LayoutKey(tableHash string, opts LayoutKeyOpts) string {
	return k.prefix + k.inner.LayoutKey(tableHash, opts)
}
