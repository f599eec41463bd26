//go:build !linux

package mediasession

// Adapter is a no-op on non-Linux platforms.
type Adapter struct{}

// Serve returns a no-op adapter on non-Linux platforms.
func Serve(_ *Session, _ string) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op on non-Linux platforms.
func (a *Adapter) Close() error {
	return nil
}
