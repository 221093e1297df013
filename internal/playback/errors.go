package playback

import "errors"

// ErrNoSource means a transport control was used before Load.
var ErrNoSource = errors.New("no audio source loaded")
