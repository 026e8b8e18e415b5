package opsix

type (
	// AudioBuffer is a buffer of stereo frames. The engine fills it in place;
	// its length is the number of frames in the block.
	AudioBuffer [][2]float32

	// AudioSource renders the next block of audio into buffer. It is called
	// from the real-time audio context and must not block.
	AudioSource func(buffer AudioBuffer)

	// AudioContext is an audio output device that repeatedly pulls blocks
	// from a source.
	AudioContext interface {
		Play(source AudioSource) (CloserWaiter, error)
		SampleRate() int
		Close() error
	}

	// CloserWaiter stops a playback started by AudioContext.Play. Wait
	// returns once the playback has stopped.
	CloserWaiter interface {
		Close() error
		Wait()
	}
)

// Clear fills the buffer with silence.
func (b AudioBuffer) Clear() {
	clear(b)
}
